// SPDX-FileCopyrightText: SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package installation contains the API types of the landscape installer: the persisted
// state of a landscape and the import configuration of one installation run.
package installation

// State is the last successfully applied configuration of a landscape. It is owned by
// the caller and its persistence layer; installers may mutate a local copy during
// migration but must not assume exclusive long-term ownership.
type State struct {
	// GardenerVersion is the Gardener version that was last successfully installed.
	GardenerVersion string `json:"gardenerVersion"`
	// Identity is the unique identity of the Gardener installation.
	Identity string `json:"identity,omitempty"`
	// VirtualGarden records the versions of the virtual garden components backing
	// this landscape.
	VirtualGarden *VirtualGardenState `json:"virtualGarden"`
	// Certificates is the TLS material generated once per landscape and reused for
	// its entire lifetime.
	Certificates *Certificates `json:"certificates,omitempty"`
}

// VirtualGardenState records version information about the virtual garden cluster.
type VirtualGardenState struct {
	// KubeAPIServerVersion is the version of the virtual garden kube-apiserver.
	// Migrations only ever raise this value, never lower it.
	KubeAPIServerVersion string `json:"kubeAPIServerVersion,omitempty"`
}

// Certificates holds the certificate authority and the component serving certificates
// of one landscape.
type Certificates struct {
	// CA is the self-signed certificate authority of the landscape.
	CA CertificatePair `json:"ca"`
	// APIServer is the serving certificate of the Gardener API server.
	APIServer CertificatePair `json:"apiServer"`
	// ControllerManager is the serving certificate of the Gardener controller manager.
	ControllerManager CertificatePair `json:"controllerManager"`
	// AdmissionController is the serving certificate of the Gardener admission controller.
	AdmissionController CertificatePair `json:"admissionController"`
}

// CertificatePair is a PEM-encoded certificate and its private key.
type CertificatePair struct {
	Crt string `json:"crt,omitempty"`
	Key string `json:"key,omitempty"`
}

// DeepCopy returns a deep copy of the state.
func (s *State) DeepCopy() *State {
	if s == nil {
		return nil
	}

	out := *s
	if s.VirtualGarden != nil {
		virtualGarden := *s.VirtualGarden
		out.VirtualGarden = &virtualGarden
	}
	if s.Certificates != nil {
		certificates := *s.Certificates
		out.Certificates = &certificates
	}
	return &out
}

// Imports is the desired target configuration supplied by the operator for one
// installation run. It is immutable for the duration of the run.
type Imports struct {
	// LandscapeName is the name of the landscape this run operates on.
	LandscapeName string `json:"landscapeName,omitempty"`
	// GardenerVersion is the target Gardener version. It selects the installer.
	GardenerVersion string `json:"gardenerVersion"`
	// VirtualGarden configures the companion virtual garden cluster.
	VirtualGarden *VirtualGarden `json:"virtualGarden,omitempty"`
	// GardenerAPIServer configures the Gardener API server deployment.
	GardenerAPIServer *ComponentConfiguration `json:"gardenerAPIServer,omitempty"`
	// GardenerControllerManager configures the Gardener controller manager deployment.
	GardenerControllerManager *ComponentConfiguration `json:"gardenerControllerManager,omitempty"`
	// GardenerAdmissionController configures the Gardener admission controller deployment.
	GardenerAdmissionController *AdmissionControllerConfiguration `json:"gardenerAdmissionController,omitempty"`
}

// VirtualGarden configures the virtual garden cluster hosting the Gardener control plane.
type VirtualGarden struct {
	// Enabled specifies whether the control plane is deployed against a virtual garden.
	Enabled bool `json:"enabled"`
	// KubeAPIServerVersion is the desired version of the virtual garden kube-apiserver.
	KubeAPIServerVersion string `json:"kubeAPIServerVersion,omitempty"`
}

// ComponentConfiguration contains the deployment configuration of one Gardener
// control plane component.
type ComponentConfiguration struct {
	// ReplicaCount is the number of replicas. Default: 1.
	ReplicaCount *int32 `json:"replicaCount,omitempty"`
	// FeatureGates are the feature gates of the component.
	FeatureGates map[string]bool `json:"featureGates,omitempty"`
	// Values are operator overrides that are deep-merged over the hard-coded chart
	// value defaults of the component.
	Values map[string]interface{} `json:"values,omitempty"`
}

// AdmissionControllerConfiguration contains the deployment configuration of the
// Gardener admission controller.
type AdmissionControllerConfiguration struct {
	// Enabled specifies whether the admission controller is deployed at all.
	Enabled bool `json:"enabled"`

	ComponentConfiguration `json:",inline"`
}

// Exports are the outputs of one successful installation run.
type Exports struct {
	// GardenerIdentity is the identity of the Gardener installation.
	GardenerIdentity string `json:"gardenerIdentity"`
	// GardenerAPIServerCA is the certificate authority of the Gardener API server.
	GardenerAPIServerCA CertificatePair `json:"gardenerAPIServerCA"`
	// GardenerAPIServerTLSServing is the serving certificate of the Gardener API server.
	GardenerAPIServerTLSServing CertificatePair `json:"gardenerAPIServerTLSServing"`
	// GardenerControllerManagerTLSServing is the serving certificate of the Gardener
	// controller manager.
	GardenerControllerManagerTLSServing CertificatePair `json:"gardenerControllerManagerTLSServing"`
	// GardenerAdmissionControllerTLSServing is the serving certificate of the Gardener
	// admission controller. Only set if the admission controller is enabled.
	GardenerAdmissionControllerTLSServing *CertificatePair `json:"gardenerAdmissionControllerTLSServing,omitempty"`
}
