package section

const (
	// MagicNumber identifies a catsnap envelope. It is stored little-endian in bytes 0-1.
	MagicNumber = 0xCA75

	// VersionV1 is the current envelope layout version.
	VersionV1 = 0x1
)

// Header layout offsets.
const (
	HeaderSize = 32 // fixed header size in bytes

	magicOffset       = 0
	versionOffset     = 2
	kindOffset        = 3
	compressionOffset = 4
	payloadSizeOffset = 8
	storedSizeOffset  = 12
	checksumOffset    = 16
	reservedOffset    = 24
)
