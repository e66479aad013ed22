// Package tlsroots builds the trusted root set for outgoing HTTPS calls.
//
// The auth API is usually reached over the public PKI, so the pool starts
// from the system roots. Self-hosted deployments can add a private CA from
// a PEM file or directory via gateway.ca_file.
package tlsroots
