package errcode

import (
	"github.com/gnames/gn"
)

const (
	UnknownError gn.ErrorCode = iota

	// File System errors
	CreateDirError
	CopyFileError
	ReadFileError
	WriteFileError

	// Logging errors
	CreateLogFileError

	// Configuration errors
	ConfigValidationError
	BadChunkStrategyError
	BadLlmProviderError

	// Input loading errors
	FileTooBigError
	EncodingError

	// Gazetteer errors
	MissingGazetteerError
	GazetteerSchemaError
	GazetteerOpenError
	GazetteerQueryError

	// Cache errors
	CacheSchemaError
	CacheOpenError
	CacheReadError
	CacheWriteError

	// Upstream search errors
	UpstreamRequestError
	UpstreamStatusError
	UpstreamRetriesError

	// LLM errors
	LlmRequestError
	LlmResponseError
	LlmRuntimeError

	// Checkpoint errors
	CheckpointError
)
