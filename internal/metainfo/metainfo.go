// Package metainfo support for reading and writing torrent files.
package metainfo

import (
	"errors"
	"io"
	"strings"
	"time"

	"github.com/zeebo/bencode"
)

// Creator is the string that is put into the created torrent by NewBytes function.
var Creator string

// MetaInfo file dictionary
type MetaInfo struct {
	Info Info
	// Announce contains the supported tracker URLs in the order they should be tried.
	Announce  []string
	Comment   string
	CreatedBy string
}

// New returns a torrent from bencoded stream.
func New(r io.Reader) (*MetaInfo, error) {
	var ret MetaInfo
	var t struct {
		Info         bencode.RawMessage `bencode:"info"`
		Announce     bencode.RawMessage `bencode:"announce"`
		AnnounceList bencode.RawMessage `bencode:"announce-list"`
		Comment      string             `bencode:"comment"`
		CreatedBy    string             `bencode:"created by"`
	}
	err := bencode.NewDecoder(r).Decode(&t)
	if err != nil {
		return nil, err
	}
	if len(t.Info) == 0 {
		return nil, errors.New("no info dict in torrent file")
	}
	info, err := NewInfo(t.Info)
	if err != nil {
		return nil, err
	}
	ret.Info = *info
	ret.Comment = t.Comment
	ret.CreatedBy = t.CreatedBy
	seen := make(map[string]struct{})
	add := func(s string) {
		if _, ok := seen[s]; ok || !isTrackerSupported(s) {
			return
		}
		seen[s] = struct{}{}
		ret.Announce = append(ret.Announce, s)
	}
	if len(t.AnnounceList) > 0 {
		var ll [][]string
		err = bencode.DecodeBytes(t.AnnounceList, &ll)
		if err == nil {
			for _, tier := range ll {
				for _, s := range tier {
					add(s)
				}
			}
		}
	}
	if len(t.Announce) > 0 {
		var s string
		err = bencode.DecodeBytes(t.Announce, &s)
		if err == nil {
			add(s)
		}
	}
	return &ret, nil
}

func isTrackerSupported(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// NewBytes creates a new torrent metadata file from given information.
func NewBytes(info []byte, trackers []string, comment string) ([]byte, error) {
	mi := struct {
		Info         bencode.RawMessage `bencode:"info"`
		Announce     string             `bencode:"announce,omitempty"`
		AnnounceList [][]string         `bencode:"announce-list,omitempty"`
		Comment      string             `bencode:"comment,omitempty"`
		CreationDate int64              `bencode:"creation date"`
		CreatedBy    string             `bencode:"created by,omitempty"`
	}{
		Info:         info,
		Comment:      comment,
		CreationDate: time.Now().UTC().Unix(),
		CreatedBy:    Creator,
	}
	if len(trackers) > 0 {
		mi.Announce = trackers[0]
	}
	if len(trackers) > 1 {
		mi.AnnounceList = [][]string{trackers}
	}
	return bencode.EncodeBytes(mi)
}
