package catalog

// pitchClassToNote maps the Spotify pitch class (0-11) to a note name.
var pitchClassToNote = [12]string{
	"C", "Db", "D", "Eb", "E", "F", "F#", "G", "Ab", "A", "Bb", "B",
}

// camelotKey holds a (pitch class, mode) pair; mode 0 = minor, 1 = major.
type camelotKey struct {
	pitchClass int
	mode       int
}

// camelotMap maps musical keys to Camelot wheel codes, as used by DJ
// software such as Rekordbox and Traktor.
var camelotMap = map[camelotKey]string{
	{0, 1}: "8B", {0, 0}: "5A", // C maj / C min
	{1, 1}: "3B", {1, 0}: "12A", // Db maj / C# min
	{2, 1}: "10B", {2, 0}: "7A", // D maj / D min
	{3, 1}: "5B", {3, 0}: "2A", // Eb maj / Eb min
	{4, 1}: "12B", {4, 0}: "9A", // E maj / E min
	{5, 1}: "7B", {5, 0}: "4A", // F maj / F min
	{6, 1}: "2B", {6, 0}: "11A", // F# maj / F# min
	{7, 1}: "9B", {7, 0}: "6A", // G maj / G min
	{8, 1}: "4B", {8, 0}: "1A", // Ab maj / Ab min
	{9, 1}: "11B", {9, 0}: "8A", // A maj / A min
	{10, 1}: "6B", {10, 0}: "3A", // Bb maj / Bb min
	{11, 1}: "1B", {11, 0}: "10A", // B maj / B min
}

// noteName renders a (pitch class, mode) pair as a note name with a
// minor suffix, e.g. "F#" or "Am". Returns "" for out-of-range input.
func noteName(pitchClass, mode int) string {
	if pitchClass < 0 || pitchClass > 11 {
		return ""
	}
	note := pitchClassToNote[pitchClass]
	if mode == 0 {
		return note + "m"
	}
	return note
}

// camelotCode returns the Camelot wheel code for a key, or "".
func camelotCode(pitchClass, mode int) string {
	return camelotMap[camelotKey{pitchClass, mode}]
}
