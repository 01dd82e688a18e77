package service

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrLessonNotFound  = errors.New("lesson does not belong to this course")
	ErrInvalidInput    = errors.New("invalid input")
	ErrStorageDisabled = errors.New("media storage is not configured")
)
