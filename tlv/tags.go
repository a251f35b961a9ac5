package tlv

// Tag identifies a field within a Signed Video SEI's TLV body (spec §4.2).
type Tag uint8

const (
	TagGeneralInfo    Tag = 1
	TagProductInfo    Tag = 2
	TagRecurrenceInfo Tag = 3
	TagHashList       Tag = 4
	TagSignatureHash  Tag = 5
	TagSignature      Tag = 6
	TagArbitraryData  Tag = 7
	TagPublicKey      Tag = 8

	// TagVendorRangeStart..TagVendorRangeEnd are reserved for
	// vendor-specific extensions (spec §1 non-core, §9 Design Notes;
	// grounded on VENDOR_AXIS_COMMUNICATIONS_TAG in original_source/).
	TagVendorRangeStart Tag = 0xE0
	TagVendorRangeEnd   Tag = 0xFF
)

func (t Tag) isVendor() bool {
	return t >= TagVendorRangeStart && t <= TagVendorRangeEnd
}

// recurrentTags lists tags that only appear in every Nth SEI (spec §4.2).
var recurrentTags = map[Tag]bool{
	TagProductInfo: true,
	TagPublicKey:   true,
}

// IsRecurrent reports whether tag is a recurrent field.
func IsRecurrent(tag Tag) bool {
	return recurrentTags[tag]
}
