package bookmark

import "fmt"

// StorageReadError means the persisted bookmark set could not be loaded.
// The store keeps working with an empty set.
type StorageReadError struct {
	Key string
	Err error
}

func (e *StorageReadError) Error() string {
	return fmt.Sprintf("read bookmarks (key = %s): %v", e.Key, e.Err)
}

func (e *StorageReadError) Unwrap() error {
	return e.Err
}

// StorageWriteError means a mutation was applied in memory but not
// persisted. The next successful write or Flush re-converges storage.
type StorageWriteError struct {
	Key string
	Err error
}

func (e *StorageWriteError) Error() string {
	return fmt.Sprintf("write bookmarks (key = %s): %v", e.Key, e.Err)
}

func (e *StorageWriteError) Unwrap() error {
	return e.Err
}
