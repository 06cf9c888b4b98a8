package gallery

const (
	// Validation (1xxx)
	CodeInvalidArgument   = 1000
	CodeInvalidScope      = 1101
	CodeInvalidGallery    = 1102
	CodeInvalidFormat     = 1103
	CodeMissingFiles      = 1104
	CodeInvalidLabel      = 1105
	CodeInvalidPosition   = 1106
	CodeUnknownAttachment = 1107
	CodeStaleAttachment   = 1108
	CodeCoverScope        = 1109
	CodeInvalidColumns    = 1110

	// Domain state (2xxx)
	CodeAttachmentNotFound = 2003
	CodeFormatNotFound     = 2005
	CodePositionOccupied   = 2103

	// Internal/system (4xxx)
	CodeStoreFailure        = 4002
	CodeBlobWriteFailure    = 4006
	CodeBlobReadFailure     = 4007
	CodeBlobDeleteFailure   = 4008
	CodeFormatAlreadyStored = 4009
	CodeIncompleteContent   = 4010
)
