package prog

import "flag"

// FlagSet wraps a [flag.FlagSet]. It also provides flags that can be shared by
// several subprograms; the methods for them register the flag the first time
// they are called, and return the same pointer afterwards.
type FlagSet struct {
	*flag.FlagSet
	json   *bool
	format *string
}

// JSON returns a pointer to the value of the shared -json flag.
func (fs *FlagSet) JSON() *bool {
	if fs.json == nil {
		var json bool
		fs.BoolVar(&json, "json", false,
			"show the output from -buildinfo or -tokens in JSON")
		fs.json = &json
	}
	return fs.json
}

// Format returns a pointer to the value of the shared -format flag.
func (fs *FlagSet) Format() *string {
	if fs.format == nil {
		var format string
		fs.StringVar(&format, "format", "text",
			"output format of trees and tokens: text, json or yaml")
		fs.format = &format
	}
	return fs.format
}
