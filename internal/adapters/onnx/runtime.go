// Package onnx runs the vision feature models (pose landmarks, facial
// measurements) through ONNX Runtime.
package onnx

import (
	"sync"

	onnxruntime "github.com/yalue/onnxruntime_go"

	"poise/pkg/errors"
)

var (
	initOnce sync.Once
	initErr  error
)

// initRuntime initializes the ONNX runtime environment once per process
func initRuntime() error {
	initOnce.Do(func() {
		initErr = onnxruntime.InitializeEnvironment()
	})
	if initErr != nil {
		return errors.Wrap(initErr, "failed to initialize ONNX runtime")
	}
	return nil
}

// newSession loads one model with dynamic input/output tensors
func newSession(modelPath string, inputs, outputs []string) (*onnxruntime.DynamicAdvancedSession, error) {
	if err := initRuntime(); err != nil {
		return nil, err
	}

	options, err := onnxruntime.NewSessionOptions()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create session options")
	}
	defer options.Destroy()

	session, err := onnxruntime.NewDynamicAdvancedSession(modelPath, inputs, outputs, options)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load ONNX model %s", modelPath)
	}
	return session, nil
}
