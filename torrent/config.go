package torrent

import (
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Config for Client.
type Config struct {
	// Prefix of the 20 bytes peer id sent in handshakes. The rest is random.
	PeerIDPrefix string `yaml:"peer_id_prefix"`

	Peer     PeerConfig     `yaml:"peer"`
	Download DownloadConfig `yaml:"download"`
	Tracker  TrackerConfig  `yaml:"tracker"`
}

// PeerConfig contains timeouts of peer connections.
type PeerConfig struct {
	// Time to wait for TCP connection to open.
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	// Time to wait for BitTorrent handshake to complete.
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
	// Time to wait for the next message from a peer before the connection is closed.
	ReadTimeout time.Duration `yaml:"read_timeout"`
	// Time to wait for a message to be written to a peer.
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// DownloadConfig contains settings of piece downloads.
type DownloadConfig struct {
	// Max number of blocks requested from a peer but not received yet.
	RequestQueueLength int `yaml:"request_queue_length"`
	// Number of times a piece is downloaded before giving up on a hash mismatch. 1 means no retry.
	MaxAttempts int `yaml:"max_attempts"`
	// Time to wait before downloading a piece again. Doubles after each attempt up to RetryMaxInterval.
	RetryInitialInterval time.Duration `yaml:"retry_initial_interval"`
	RetryMaxInterval     time.Duration `yaml:"retry_max_interval"`
	// Download speed limit for all peers in bytes per second. 0 means unlimited.
	SpeedLimit int64 `yaml:"speed_limit"`
}

// TrackerConfig contains settings of tracker announces.
type TrackerConfig struct {
	// Port reported to trackers.
	Port int `yaml:"port"`
	// Number of peer addresses to request in announce request.
	NumWant int `yaml:"num_want"`
	// Total time to wait for response to be read.
	Timeout time.Duration `yaml:"timeout"`
	// Number of announces made to a tracker before trying the next one.
	MaxAttempts int `yaml:"max_attempts"`
	// User-Agent header sent in HTTP requests.
	UserAgent string `yaml:"user_agent"`
	// Responses bigger than this are truncated.
	MaxResponseLength int64 `yaml:"max_response_length"`
}

// DefaultConfig for Client.
var DefaultConfig = Config{
	PeerIDPrefix: "-DZ0001-",
	Peer: PeerConfig{
		ConnectTimeout:   5 * time.Second,
		HandshakeTimeout: 10 * time.Second,
		ReadTimeout:      2 * time.Minute,
		WriteTimeout:     30 * time.Second,
	},
	Download: DownloadConfig{
		RequestQueueLength:   5,
		MaxAttempts:          1,
		RetryInitialInterval: time.Second,
		RetryMaxInterval:     30 * time.Second,
	},
	Tracker: TrackerConfig{
		Port:              6881,
		NumWant:           50,
		Timeout:           30 * time.Second,
		MaxAttempts:       3,
		UserAgent:         "drizzle/0.1",
		MaxResponseLength: 2 << 20,
	},
}

// LoadConfig reads the YAML config at filename over DefaultConfig.
// If the file does not exist DefaultConfig is returned.
func LoadConfig(filename string) (*Config, error) {
	c := DefaultConfig
	b, err := os.ReadFile(filename)
	if os.IsNotExist(err) {
		return &c, nil
	}
	if err != nil {
		return nil, err
	}
	if err = yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	return &c, nil
}
