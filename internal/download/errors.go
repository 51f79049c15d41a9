package download

import "errors"

var ErrNotFound = errors.New("download not found")
