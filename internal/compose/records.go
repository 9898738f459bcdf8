package compose

import "strings"

// Record is one entry of the page's picture list.
type Record struct {
	Key string
}

// BuildRecords converts collected paths into records. With a prefix, the
// leading "<root>/" of each path is replaced by prefix; paths outside root
// keep their raw value.
func BuildRecords(paths []string, root, prefix string) []Record {
	records := make([]Record, 0, len(paths))
	lead := strings.TrimSuffix(root, "/") + "/"
	for _, p := range paths {
		key := p
		if prefix != "" && strings.HasPrefix(p, lead) {
			key = prefix + p[len(lead):]
		}
		records = append(records, Record{Key: key})
	}
	return records
}
