//go:build js && wasm

package main

import (
	"syscall/js"

	"junocam/pkg/junocam"
)

var lastLayout *junocam.Layout

func main() {
	js.Global().Set("demuxRaw", js.FuncOf(demuxRaw))
	js.Global().Set("renderFrameMap", js.FuncOf(renderFrameMap))
	select {} // block forever
}

// demuxRaw(fileBytes, fileName, options) returns the composite PNG and the
// three mosaic PNGs. options.bandHeight overrides the strip height.
func demuxRaw(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return errorResult("usage: demuxRaw(fileBytes, fileName, options)")
	}

	jsBytes := args[0]
	fileBytes := make([]byte, jsBytes.Get("length").Int())
	js.CopyBytesToGo(fileBytes, jsBytes)
	name := args[1].String()

	params := junocam.DefaultParams()
	if len(args) >= 3 && args[2].Type() == js.TypeObject {
		if v := args[2].Get("bandHeight"); v.Type() == js.TypeNumber {
			params.BandHeight = v.Int()
		}
	}

	raw, err := junocam.DecodeRaw(fileBytes, name)
	if err != nil {
		return errorResult(err.Error())
	}
	defer raw.Close()

	mosaics, err := junocam.Demux(raw, params)
	if err != nil {
		return errorResult(err.Error())
	}
	defer mosaics.Close()
	layout := mosaics.Layout
	lastLayout = &layout

	composite, err := junocam.Composite(mosaics)
	if err != nil {
		return errorResult(err.Error())
	}
	defer composite.Close()

	result := map[string]interface{}{
		"width":        raw.Cols(),
		"height":       raw.Rows(),
		"depth":        raw.Depth().String(),
		"frames":       layout.Frames,
		"firstFrame":   layout.FirstFrame(),
		"lastFrame":    layout.LastFrame(),
		"mosaicHeight": layout.MosaicHeight(),
	}

	png, err := junocam.EncodeMat(".png", composite)
	if err != nil {
		return errorResult(err.Error())
	}
	result["composite"] = toUint8Array(png)

	for _, c := range junocam.Channels {
		data, err := junocam.EncodeMat(".png", mosaics.Channel(c))
		if err != nil {
			return errorResult(err.Error())
		}
		result[c.String()] = toUint8Array(data)
	}

	if product, err := junocam.ParseProduct(name); err == nil {
		result["imageId"] = product.ImageID
		result["date"] = product.Date.Format("2006-01-02")
		result["sclk"] = product.ClockString()
	}

	return js.ValueOf(result)
}

// renderFrameMap() returns a JPEG diagram of the last demuxRaw layout.
func renderFrameMap(this js.Value, args []js.Value) interface{} {
	if lastLayout == nil {
		return errorResult("no layout available, run demuxRaw first")
	}
	data, err := junocam.RenderFrameMapBytes(*lastLayout)
	if err != nil {
		return errorResult("Frame map error: " + err.Error())
	}
	return toUint8Array(data)
}

func toUint8Array(data []byte) js.Value {
	arr := js.Global().Get("Uint8Array").New(len(data))
	js.CopyBytesToJS(arr, data)
	return arr
}

func errorResult(msg string) interface{} {
	return js.ValueOf(map[string]interface{}{
		"error": msg,
	})
}
