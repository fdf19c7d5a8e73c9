package region

import "fmt"

// MalformedInputError reports an unparseable line in a FASTA, GTF,
// tabular, CSV or SAM input.
type MalformedInputError struct {
	Path    string
	Line    int
	Message string
}

func (e *MalformedInputError) Error() string {
	switch {
	case e.Line == 0 && e.Path == "":
		return "malformed input: " + e.Message
	case e.Line == 0:
		return fmt.Sprintf("malformed input %s: %s", e.Path, e.Message)
	case e.Path == "":
		return fmt.Sprintf("malformed input at line %d: %s", e.Line, e.Message)
	}
	return fmt.Sprintf("malformed input %s:%d: %s", e.Path, e.Line, e.Message)
}

// InvalidRangeError reports coordinates with start > end, or coordinates
// that fall outside the sequence after shifting.
type InvalidRangeError struct {
	SeqName string
	Start   int
	End     int
	Reason  string
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid range %s [%d,%d): %s", e.SeqName, e.Start, e.End, e.Reason)
}
