package inference

import "runtime"

// GetSharedLibPath returns the default onnxruntime shared library location
// for the current platform, relative to the working directory.
func GetSharedLibPath() string {
	if runtime.GOOS == "windows" {
		return "third_party/onnxruntime.dll"
	}
	if runtime.GOOS == "darwin" {
		return "third_party/libonnxruntime.dylib"
	}
	if runtime.GOARCH == "arm64" {
		return "third_party/onnxruntime_arm64.so"
	}
	return "third_party/onnxruntime.so"
}
