// Package config defines the CLI-facing configuration surface for the
// mock server core, grounded on the teacher's config/schemas.go doc
// style and config/utils.go's ApplyServerDefaults/validate pattern,
// trimmed down from a full routing/auth/CORS schema to the handful of
// options the spec's CLI contract (§6) actually exposes.
package config

import "fmt"

// CertMode selects how the HTTPS listener obtains its certificate.
type CertMode string

const (
	CertModeNone       CertMode = "none"
	CertModeSelfSigned CertMode = "self-signed"
	CertModeCustom     CertMode = "custom"
)

// RequestLogFormat selects the on-disk serialization for mirrored
// request/response pairs.
type RequestLogFormat string

const (
	RequestLogFormatJSON RequestLogFormat = "json"
	RequestLogFormatYAML RequestLogFormat = "yaml"
)

// Options is the fully-resolved configuration driving one server run.
type Options struct {
	// Directory is the positional argument: the root of the mock tree.
	Directory string

	HTTPPort  int
	HTTPSPort int
	HTTPOnly  bool
	HTTPSOnly bool

	CertMode CertMode
	CertFile string
	KeyFile  string

	RequestLogDir     string
	RequestLogFormat  RequestLogFormat
	RequestLogWorkers int
}

// ApplyDefaults fills in zero-valued fields with the spec's documented
// defaults. Mirrors the teacher's ServerConfig.ApplyServerDefaults
// shape: defaulting is a separate, explicit step from validation.
func (o *Options) ApplyDefaults() {
	if o.HTTPPort == 0 {
		o.HTTPPort = 8080
	}
	if o.HTTPSPort == 0 {
		o.HTTPSPort = 8443
	}
	if o.CertMode == "" {
		o.CertMode = CertModeSelfSigned
	}
	if o.RequestLogFormat == "" {
		o.RequestLogFormat = RequestLogFormatJSON
	}
	if o.RequestLogWorkers == 0 {
		o.RequestLogWorkers = 2
	}
}

// Validate checks the argument-error conditions the CLI contract
// implies: mutually exclusive listener flags, a custom cert mode that
// requires both PEM paths, and a known request-log format.
func (o *Options) Validate() error {
	if o.Directory == "" {
		return fmt.Errorf("DIRECTORY is required")
	}
	if o.HTTPOnly && o.HTTPSOnly {
		return fmt.Errorf("--http-only and --https-only are mutually exclusive")
	}
	switch o.CertMode {
	case CertModeNone, CertModeSelfSigned, CertModeCustom:
	default:
		return fmt.Errorf("invalid --cert-mode %q: must be one of none, self-signed, custom", o.CertMode)
	}
	if o.CertMode == CertModeCustom {
		if o.CertFile == "" || o.KeyFile == "" {
			return fmt.Errorf("--cert-file and --key-file are required when --cert-mode=custom")
		}
	}
	switch o.RequestLogFormat {
	case "", RequestLogFormatJSON, RequestLogFormatYAML:
	default:
		return fmt.Errorf("invalid --request-log-format %q: must be json or yaml", o.RequestLogFormat)
	}
	return nil
}
