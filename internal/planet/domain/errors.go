package domain

import "errors"

var (
	ErrStorageInit = errors.New("storage_init_failed")
	ErrStorageIO   = errors.New("storage_io_failed")

	ErrRemoteTimeout = errors.New("remote_timeout")
	ErrRemoteParse   = errors.New("remote_parse_failed")

	ErrBundledAssetMissing = errors.New("bundled_asset_missing")
	ErrBundledParse        = errors.New("bundled_parse_failed")

	ErrInvalidName = errors.New("invalid_name")
	ErrNotFound    = errors.New("not_found")
)
