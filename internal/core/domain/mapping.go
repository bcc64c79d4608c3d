package domain

// SessionMapping correlates a server-issued key (the service ticket echoed
// back in single-logout notifications) with the locally held session key.
// SessionHandle is an opaque reference the host uses to terminate the
// session; this core never interprets it.
type SessionMapping struct {
	ServerKey     string
	ClientKey     string
	SessionHandle string
}
