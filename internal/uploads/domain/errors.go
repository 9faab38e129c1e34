package domain

import "errors"

var (
	ErrUploadNotFound  = errors.New("upload not found")
	ErrAlreadyFinished = errors.New("upload already finished")
	ErrNoFile          = errors.New("no file uploaded")
	ErrInvalidFileType = errors.New("invalid file type")
	ErrFileTooLarge    = errors.New("file exceeds maximum upload size")
)
