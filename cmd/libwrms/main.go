// Command libwrms builds the ggass engine as a C shared library:
//
//	go build -buildmode=c-shared -o libwrms.so ./cmd/libwrms
//
// The exported functions keep the wrms_* names, record layouts and status
// codes of the wrms C interface. Handles are runtime/cgo handles; frame
// buffers are allocated with malloc and released by wrms_free_frame.
//
// The environment variable WRMS_CONFIG may name a ggass YAML config; its
// render, fonts and log sections apply to every handle.
package main

func main() {}
