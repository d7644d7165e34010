package repository

import "errors"

// ErrNotFound 记录不存在，或不属于当前用户
var ErrNotFound = errors.New("record not found")
