// SPDX-FileCopyrightText: SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package controlplane_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	appsv1 "k8s.io/api/apps/v1"
	authenticationv1 "k8s.io/api/authentication/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/scheme"
	"sigs.k8s.io/controller-runtime/pkg/client"
	fakeclient "sigs.k8s.io/controller-runtime/pkg/client/fake"
	"sigs.k8s.io/controller-runtime/pkg/client/interceptor"

	"github.com/gardener/landscape-installer/pkg/apis/installation"
	"github.com/gardener/landscape-installer/pkg/chartrenderer"
	"github.com/gardener/landscape-installer/pkg/client/kubernetes"
	"github.com/gardener/landscape-installer/pkg/controlplane"
	"github.com/gardener/landscape-installer/pkg/logger"
	"github.com/gardener/landscape-installer/pkg/utils/flow"
)

type renderCall struct {
	chartPath string
	values    map[string]interface{}
}

type applyCall struct {
	chartPath string
	values    map[string]interface{}
}

// fakeChartApplier records the chart renders and applies it receives.
type fakeChartApplier struct {
	renders []renderCall
	applies []applyCall
}

func (f *fakeChartApplier) Render(chartPath, releaseName, _ string, values map[string]interface{}) (*chartrenderer.RenderedChart, error) {
	f.renders = append(f.renders, renderCall{chartPath: chartPath, values: values})
	return &chartrenderer.RenderedChart{ChartName: releaseName}, nil
}

func (f *fakeChartApplier) RenderArchive(_ []byte, releaseName, _ string, _ map[string]interface{}) (*chartrenderer.RenderedChart, error) {
	return &chartrenderer.RenderedChart{ChartName: releaseName}, nil
}

func (f *fakeChartApplier) Apply(_ context.Context, chartPath, _, _ string, opts ...kubernetes.ApplyOption) error {
	applyOpts := &kubernetes.ApplyOptions{}
	for _, opt := range opts {
		opt.MutateApplyOptions(applyOpts)
	}
	f.applies = append(f.applies, applyCall{chartPath: chartPath, values: applyOpts.Values})
	return nil
}

func (f *fakeChartApplier) Delete(_ context.Context, _, _, _ string, _ ...kubernetes.ApplyOption) error {
	return nil
}

var _ = Describe("Reconcile", func() {
	var (
		ctx      context.Context
		executor flow.Executor

		chartApplier *fakeChartApplier
		imports      *installation.Imports
		state        *installation.State
	)

	BeforeEach(func() {
		ctx = context.Background()
		executor = flow.NewExecutor(logger.NewNopLogger(), nil)
		chartApplier = &fakeChartApplier{}

		imports = &installation.Imports{
			LandscapeName:   "test",
			GardenerVersion: "1.80.3",
			VirtualGarden:   &installation.VirtualGarden{Enabled: true, KubeAPIServerVersion: "1.23.16"},
		}
		state = &installation.State{
			GardenerVersion: "1.79.0",
			VirtualGarden:   &installation.VirtualGardenState{KubeAPIServerVersion: "1.23.16"},
		}
	})

	Context("against a runtime cluster", func() {
		var runtimeClient client.Client

		availableDeployment := func(name string) *appsv1.Deployment {
			return &appsv1.Deployment{
				ObjectMeta: metav1.ObjectMeta{Namespace: "garden", Name: name},
				Status:     appsv1.DeploymentStatus{AvailableReplicas: 1},
			}
		}

		BeforeEach(func() {
			runtimeClient = fakeclient.NewClientBuilder().
				WithScheme(scheme.Scheme).
				WithObjects(
					availableDeployment("virtual-garden-kube-apiserver"),
					availableDeployment("gardener-apiserver"),
					availableDeployment("gardener-controller-manager"),
				).
				WithInterceptorFuncs(interceptor.Funcs{
					SubResourceCreate: func(_ context.Context, _ client.Client, subResourceName string, obj client.Object, subResource client.Object, _ ...client.SubResourceCreateOption) error {
						Expect(subResourceName).To(Equal("token"))
						tokenRequest, ok := subResource.(*authenticationv1.TokenRequest)
						Expect(ok).To(BeTrue())
						tokenRequest.Status.Token = "token-" + obj.GetName()
						return nil
					},
				}).
				Build()
		})

		It("should apply the application chart strictly before minting credentials and the runtime chart strictly after", func() {
			operation := controlplane.New(controlplane.Options{
				Log:             logger.NewNopLogger(),
				RuntimeClient:   runtimeClient,
				ChartApplier:    chartApplier,
				ChartsDirectory: "charts",
				Imports:         imports,
				State:           state,
			})

			Expect(operation.Reconcile(ctx, executor)).To(Succeed())

			Expect(chartApplier.applies).To(HaveLen(2))
			Expect(chartApplier.applies[0].chartPath).To(Equal("charts/application"))
			Expect(chartApplier.applies[1].chartPath).To(Equal("charts/runtime"))

			// The application chart must not depend on minted credentials.
			Expect(chartApplier.applies[0].values).NotTo(HaveKey("kubeconfigs"))

			// The runtime chart carries the kubeconfigs minted in between.
			kubeconfigs, ok := chartApplier.applies[1].values["kubeconfigs"].(map[string]interface{})
			Expect(ok).To(BeTrue())
			Expect(kubeconfigs).To(HaveKey("gardener-apiserver"))
			Expect(kubeconfigs).To(HaveKey("gardener-controller-manager"))
		})

		It("should create the garden namespace", func() {
			operation := controlplane.New(controlplane.Options{
				Log:             logger.NewNopLogger(),
				RuntimeClient:   runtimeClient,
				ChartApplier:    chartApplier,
				ChartsDirectory: "charts",
				Imports:         imports,
				State:           state,
			})

			Expect(operation.Reconcile(ctx, executor)).To(Succeed())

			namespace := &corev1.Namespace{}
			Expect(runtimeClient.Get(ctx, client.ObjectKey{Name: "garden"}, namespace)).To(Succeed())
		})

		It("should record the identity and the certificates in the state and reuse them", func() {
			operation := controlplane.New(controlplane.Options{
				Log:             logger.NewNopLogger(),
				RuntimeClient:   runtimeClient,
				ChartApplier:    chartApplier,
				ChartsDirectory: "charts",
				Imports:         imports,
				State:           state,
			})

			Expect(operation.Reconcile(ctx, executor)).To(Succeed())

			Expect(state.Identity).To(HavePrefix("test-"))
			Expect(state.Certificates).NotTo(BeNil())
			Expect(state.Certificates.CA.Crt).NotTo(BeEmpty())
			Expect(state.Certificates.APIServer.Crt).NotTo(BeEmpty())
			Expect(state.Certificates.ControllerManager.Crt).NotTo(BeEmpty())

			identity := state.Identity
			caCrt := state.Certificates.CA.Crt

			operation = controlplane.New(controlplane.Options{
				Log:             logger.NewNopLogger(),
				RuntimeClient:   runtimeClient,
				ChartApplier:    chartApplier,
				ChartsDirectory: "charts",
				Imports:         imports,
				State:           state,
			})
			Expect(operation.Reconcile(ctx, executor)).To(Succeed())

			Expect(state.Identity).To(Equal(identity))
			Expect(state.Certificates.CA.Crt).To(Equal(caCrt))
		})

		It("should expose the generated material via Exports", func() {
			imports.GardenerAdmissionController = &installation.AdmissionControllerConfiguration{Enabled: true}
			Expect(runtimeClient.Create(ctx, availableDeployment("gardener-admission-controller"))).To(Succeed())

			operation := controlplane.New(controlplane.Options{
				Log:             logger.NewNopLogger(),
				RuntimeClient:   runtimeClient,
				ChartApplier:    chartApplier,
				ChartsDirectory: "charts",
				Imports:         imports,
				State:           state,
			})

			Expect(operation.Reconcile(ctx, executor)).To(Succeed())

			exports := operation.Exports()
			Expect(exports.GardenerIdentity).To(Equal(state.Identity))
			Expect(exports.GardenerAPIServerCA).To(Equal(state.Certificates.CA))
			Expect(exports.GardenerAPIServerTLSServing).To(Equal(state.Certificates.APIServer))
			Expect(exports.GardenerControllerManagerTLSServing).To(Equal(state.Certificates.ControllerManager))
			Expect(exports.GardenerAdmissionControllerTLSServing).NotTo(BeNil())
		})
	})

	Context("dry run", func() {
		It("should render both charts in order without touching the cluster", func() {
			operation := controlplane.New(controlplane.Options{
				Log:             logger.NewNopLogger(),
				ChartApplier:    chartApplier,
				ChartsDirectory: "charts",
				DryRun:          true,
				Imports:         imports,
				State:           state,
			})

			Expect(operation.Reconcile(ctx, executor)).To(Succeed())

			Expect(chartApplier.applies).To(BeEmpty())
			Expect(chartApplier.renders).To(HaveLen(2))
			Expect(chartApplier.renders[0].chartPath).To(Equal("charts/application"))
			Expect(chartApplier.renders[1].chartPath).To(Equal("charts/runtime"))

			kubeconfigs, ok := chartApplier.renders[1].values["kubeconfigs"].(map[string]interface{})
			Expect(ok).To(BeTrue())
			Expect(kubeconfigs).To(HaveKey("gardener-apiserver"))
		})
	})
})
