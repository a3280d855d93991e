package slskd

import "encoding/json"

// SearchFile is one file offered by a peer in a search response.
type SearchFile struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	BitRate  int    `json:"bitRate,omitempty"`
	Length   int    `json:"length,omitempty"` // seconds
}

// SearchResponse is one peer's answer to a search.
type SearchResponse struct {
	Username        string       `json:"username"`
	FreeUploadSlots int          `json:"freeUploadSlots"`
	UploadSpeed     int64        `json:"uploadSpeed"`
	QueueLength     int          `json:"queueLength"`
	Files           []SearchFile `json:"files"`
}

// DownloadFile is the transfer state of one enqueued file.
//
// State carries the daemon's raw state string. Terminal states all
// contain "Completed"; the success case additionally contains
// "Succeeded" (the others are Cancelled, TimedOut, Errored, Rejected).
type DownloadFile struct {
	Filename         string `json:"filename"`
	Size             int64  `json:"size"`
	BytesTransferred int64  `json:"bytesTransferred"`
	State            string `json:"state"`
}

// DownloadDirectory groups a peer's enqueued files by remote directory.
type DownloadDirectory struct {
	Directory string         `json:"directory"`
	Files     []DownloadFile `json:"files"`
}

// UnmarshalJSON tolerates malformed file entries: the daemon has been
// observed to emit non-object entries in the files array, which are
// skipped rather than failing the whole directory.
func (d *DownloadDirectory) UnmarshalJSON(data []byte) error {
	var raw struct {
		Directory string            `json:"directory"`
		Files     []json.RawMessage `json:"files"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	d.Directory = raw.Directory
	d.Files = d.Files[:0]
	for _, entry := range raw.Files {
		var f DownloadFile
		if err := json.Unmarshal(entry, &f); err != nil {
			continue
		}
		d.Files = append(d.Files, f)
	}
	return nil
}

// searchStateResponse is the poll shape of GET /searches/{id}.
type searchStateResponse struct {
	ID    string `json:"id"`
	State string `json:"state"`
}

// searchRequest is the body of POST /searches.
type searchRequest struct {
	SearchText               string `json:"searchText"`
	SearchTimeout            int    `json:"searchTimeout"`
	FilterResponses          bool   `json:"filterResponses"`
	MaximumPeerQueueLength   int    `json:"maximumPeerQueueLength"`
	MinimumPeerUploadSpeed   int    `json:"minimumPeerUploadSpeed"`
	MinimumResponseFileCount int    `json:"minimumResponseFileCount"`
	ResponseLimit            int    `json:"responseLimit"`
}
