package usa

import "errors"

var ErrSerialOpen = errors.New("error opening serial device")
var ErrSerialTimeout = errors.New("serial read timed out")
var ErrPipeCreate = errors.New("error creating command pipe")
var ErrPipeOpen = errors.New("error opening command pipe")
var ErrRawFileOpen = errors.New("error opening raw file")
var ErrConfigMissing = errors.New("error reading configuration file")
var ErrLockContention = errors.New("another instance already holds the lock file")
var ErrTooManyWindows = errors.New("window depth vector exceeds maximum of 16")
