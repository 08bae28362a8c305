// Package fdrive drives a single asynchronous sequence,
// turning pulled values into deduplicated [fseq.Result] updates
// delivered through a caller-supplied callback.
package fdrive
