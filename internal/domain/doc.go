// Package domain contains the core domain entities and value objects for fishdiary.
//
// This package represents the innermost layer of the Clean Architecture. It has
// no dependencies on infrastructure concerns (storage, HTTP, logging) and
// contains only the fishing-spot record and its rules.
//
// # Entities
//
//   - [Spot]: A user-saved fishing location (coordinate, title, description, photos)
//   - [Coordinate]: Latitude/longitude pair, fixed once the spot is created
//   - [Image]: A photo reference attached to a spot
//
// [Distance] and [Nearby] answer "which spots are close to here".
//
// # Errors
//
// [ValidationError], [PersistenceError] and [CorruptDataError] carry the
// details of a failed operation and match the [ErrValidation],
// [ErrPersistence] and [ErrCorruptData] sentinels with errors.Is.
package domain
