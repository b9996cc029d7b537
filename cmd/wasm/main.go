//go:build js && wasm
// +build js,wasm

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"syscall/js"

	"github.com/himanishpuri/MelodyAlign/pkg/melodyalign/alignment"
	"github.com/himanishpuri/MelodyAlign/pkg/melodyalign/pitch"
)

// Error codes returned to JavaScript
const (
	ErrorNone = iota
	ErrorInvalidArgs
	ErrorProcessing
	ErrorPitchTracking
	ErrorInsufficientData
	ErrorInvalidInput
)

// trackPitch runs the pitch tracker over raw samples.
// Args: audioArray, sampleRate, channels
// Returns: {error: number, data: string} with data a JSON contour
func trackPitch(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return makeErrorResponse(ErrorInvalidArgs, "Expected 3 arguments: audioArray, sampleRate, channels")
	}

	audioDataJS := args[0]
	sampleRateJS := args[1]
	channelsJS := args[2]

	if audioDataJS.Type() != js.TypeObject {
		return makeErrorResponse(ErrorInvalidArgs, "audioArray must be an Array or Float64Array")
	}
	if sampleRateJS.Type() != js.TypeNumber {
		return makeErrorResponse(ErrorInvalidArgs, "sampleRate must be a number")
	}
	if channelsJS.Type() != js.TypeNumber {
		return makeErrorResponse(ErrorInvalidArgs, "channels must be a number")
	}

	sampleRate := sampleRateJS.Int()
	channels := channelsJS.Int()

	if sampleRate <= 0 {
		return makeErrorResponse(ErrorInvalidArgs, fmt.Sprintf("Invalid sample rate: %d", sampleRate))
	}
	if channels < 1 || channels > 2 {
		return makeErrorResponse(ErrorInvalidArgs, fmt.Sprintf("Channels must be 1 (mono) or 2 (stereo), got: %d", channels))
	}

	length := audioDataJS.Length()
	if length == 0 {
		return makeErrorResponse(ErrorInvalidArgs, "audioArray is empty")
	}

	samples := make([]float64, length)
	for i := 0; i < length; i++ {
		val := audioDataJS.Index(i)
		if val.Type() != js.TypeNumber {
			return makeErrorResponse(ErrorInvalidArgs, fmt.Sprintf("audioArray element %d is not a number", i))
		}
		samples[i] = val.Float()
	}

	if channels == 2 {
		samples = stereoToMono(samples)
	}

	cfg := pitch.DefaultConfig()
	cfg.HopSize = sampleRate / 100
	tracker, err := pitch.NewAutocorrelationTracker(cfg)
	if err != nil {
		return makeErrorResponse(ErrorProcessing, fmt.Sprintf("Failed to create tracker: %v", err))
	}

	contour, err := tracker.Track(samples, sampleRate)
	if err != nil {
		return makeErrorResponse(ErrorPitchTracking, fmt.Sprintf("Pitch tracking failed: %v", err))
	}

	return makeDataResponse(contour)
}

// alignContours aligns a user contour against a reference.
// Args: referenceJSON, userJSON, notesJSON[, configJSON]
// Returns: {error: number, data: string} with data a JSON alignment result
func alignContours(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return makeErrorResponse(ErrorInvalidArgs, "Expected at least 3 arguments: referenceJSON, userJSON, notesJSON")
	}
	for i := range args {
		if args[i].Type() != js.TypeString {
			return makeErrorResponse(ErrorInvalidArgs, fmt.Sprintf("argument %d must be a JSON string", i+1))
		}
	}

	var reference, user alignment.PitchContour
	var notes []alignment.NoteBoundary
	if err := json.Unmarshal([]byte(args[0].String()), &reference); err != nil {
		return makeErrorResponse(ErrorInvalidArgs, fmt.Sprintf("Invalid reference: %v", err))
	}
	if err := json.Unmarshal([]byte(args[1].String()), &user); err != nil {
		return makeErrorResponse(ErrorInvalidArgs, fmt.Sprintf("Invalid user contour: %v", err))
	}
	if err := json.Unmarshal([]byte(args[2].String()), &notes); err != nil {
		return makeErrorResponse(ErrorInvalidArgs, fmt.Sprintf("Invalid notes: %v", err))
	}

	cfg := alignment.DefaultConfig()
	if len(args) > 3 && args[3].String() != "" {
		if err := json.Unmarshal([]byte(args[3].String()), &cfg); err != nil {
			return makeErrorResponse(ErrorInvalidArgs, fmt.Sprintf("Invalid config: %v", err))
		}
	}

	res, err := alignment.Align(context.Background(), reference, user, notes, cfg)
	switch {
	case errors.Is(err, alignment.ErrInsufficientData):
		return makeErrorResponse(ErrorInsufficientData, "Not enough signal to score (take may be silent or too short)")
	case err != nil:
		return makeErrorResponse(ErrorInvalidInput, err.Error())
	}

	return makeDataResponse(res)
}

func stereoToMono(stereo []float64) []float64 {
	if len(stereo)%2 != 0 {
		stereo = stereo[:len(stereo)-1]
	}

	monoLength := len(stereo) / 2
	mono := make([]float64, monoLength)

	for i := 0; i < monoLength; i++ {
		mono[i] = (stereo[i*2] + stereo[i*2+1]) / 2.0
	}

	return mono
}

func makeDataResponse(v any) js.Value {
	data, err := json.Marshal(v)
	if err != nil {
		return makeErrorResponse(ErrorProcessing, fmt.Sprintf("Failed to encode result: %v", err))
	}
	result := js.Global().Get("Object").New()
	result.Set("error", ErrorNone)
	result.Set("data", string(data))
	return result
}

func makeErrorResponse(errorCode int, message string) js.Value {
	result := js.Global().Get("Object").New()
	result.Set("error", errorCode)
	result.Set("data", message)
	return result
}

func main() {
	console := js.Global().Get("console")
	logf := func(method, msg string) {
		if !console.IsUndefined() {
			console.Call(method, msg)
		}
	}
	logf("log", "🔧 MelodyAlign WASM module initializing...")

	done := make(chan struct{})

	js.Global().Set("trackPitch", js.FuncOf(trackPitch))
	js.Global().Set("alignContours", js.FuncOf(alignContours))
	logf("log", "📝 trackPitch and alignContours registered")

	window := js.Global().Get("window")
	if !window.IsUndefined() {
		eventInit := js.Global().Get("Object").New()
		event := js.Global().Get("CustomEvent").New("wasmReady", eventInit)
		window.Call("dispatchEvent", event)
		logf("log", "✅ wasmReady event dispatched")
	} else {
		logf("error", "❌ window object is undefined!")
	}

	<-done
}
