package cosmosjson

// MaxDictionarySize is the number of codes the binary encoding can address:
// 32 one-byte codes plus 8*256 two-byte codes.
const MaxDictionarySize = oneByteDictionaryCodes + twoByteDictionaryCodes

const (
	oneByteDictionaryCodes = int(markerUserString1Max - markerUserString1Min)
	twoByteDictionaryCodes = int(markerUserString2Max-markerUserString2Min) * 256

	// Strings longer than this are always written inline.
	maxDictionaryStringLength = 64
)

// StringDictionary maps strings to small integer codes so a binary writer can
// replace repeated field names and values with one or two bytes.  Codes are
// assigned in first-seen order and never removed.
//
// A reader must be given the same dictionary (or one grown identically) as
// the writer that produced its buffer.  Codes beyond the dictionary's size
// are reported as a DictionaryError, but a dictionary holding different
// strings silently yields the wrong values.
//
// A StringDictionary does no locking.  Only one writer may add to it at a
// time, and readers must not run concurrently with that writer.
type StringDictionary struct {
	codes  map[string]int
	values []string
	limit  int
}

// NewStringDictionary returns an empty dictionary that holds at most limit
// codes.  A limit outside (0, MaxDictionarySize] means MaxDictionarySize.
func NewStringDictionary(limit int) *StringDictionary {
	if limit <= 0 || limit > MaxDictionarySize {
		limit = MaxDictionarySize
	}
	return &StringDictionary{
		codes: make(map[string]int),
		limit: limit,
	}
}

// Add returns the code for s, assigning the next unused code if s hasn't been
// seen before.  It returns false if s is new and the dictionary is full.
func (d *StringDictionary) Add(s string) (int, bool) {
	if code, ok := d.codes[s]; ok {
		return code, true
	}
	if len(d.values) >= d.limit {
		return 0, false
	}
	code := len(d.values)
	d.codes[s] = code
	d.values = append(d.values, s)
	return code, true
}

// Code returns the code already assigned to s, if any.
func (d *StringDictionary) Code(s string) (int, bool) {
	code, ok := d.codes[s]
	return code, ok
}

// Lookup returns the string assigned to code.
func (d *StringDictionary) Lookup(code int) (string, bool) {
	if code < 0 || code >= len(d.values) {
		return "", false
	}
	return d.values[code], true
}

// Len returns the number of codes assigned.
func (d *StringDictionary) Len() int { return len(d.values) }

func (d *StringDictionary) lookupOrError(code int) (string, error) {
	if d == nil {
		return "", &DictionaryError{Code: code, Size: -1}
	}
	s, ok := d.Lookup(code)
	if !ok {
		return "", &DictionaryError{Code: code, Size: d.Len()}
	}
	return s, nil
}

func dictionaryEligible(s []byte) bool {
	return len(s) > 0 && len(s) <= maxDictionaryStringLength
}

// addBytes is Add for a UTF-8 byte slice; it only allocates for new strings.
func (d *StringDictionary) addBytes(b []byte) (int, bool) {
	if code, ok := d.codes[string(b)]; ok {
		return code, true
	}
	return d.Add(string(b))
}
