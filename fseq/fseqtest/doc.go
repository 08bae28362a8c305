// Package fseqtest provides hand-driven sequences for tests
// exercising flume's iteration machinery.
package fseqtest
