package memory

import "errors"

var errDuplicateID = errors.New("property with this id already exists")
