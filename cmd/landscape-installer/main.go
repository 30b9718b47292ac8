// SPDX-FileCopyrightText: SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"

	"k8s.io/apimachinery/pkg/util/runtime"
	"sigs.k8s.io/controller-runtime/pkg/manager/signals"

	"github.com/gardener/landscape-installer/cmd/landscape-installer/app"
)

func main() {
	ctx := signals.SetupSignalHandler()

	command := app.NewCommandStartLandscapeInstaller()
	if err := command.ExecuteContext(ctx); err != nil {
		runtime.HandleError(err)
		os.Exit(1)
	}
}
