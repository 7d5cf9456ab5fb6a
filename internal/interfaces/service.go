package interfaces

// Service is implemented by every surface exposing the daemon to clients.
// Start must not block, Stop releases the listeners and waits for pending
// requests.
type Service interface {
	Start() error
	Stop()
}
