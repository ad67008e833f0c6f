// Package ports defines the interfaces (ports) that connect the application
// layer to infrastructure adapters.
//
// In Clean Architecture / Hexagonal Architecture, ports are the boundaries
// between the application core and the outside world. They define what the
// application needs from external systems without specifying how those needs
// are fulfilled.
//
// # Port Interfaces
//
//   - [KVStore]: Asynchronous key/value storage of serialized text blobs
//   - [Logger]: Structured logging abstraction
//
// # Usage
//
// The application layer (internal/app) depends only on these interfaces.
// Infrastructure adapters (internal/adapters) implement these interfaces
// with concrete implementations (file system, sqlite, in-memory).
//
// This separation enables:
//   - Testing application logic with fake stores that fail on demand
//   - Swapping the storage backend without touching the spot repository
//   - Clear boundaries and dependency direction
package ports
