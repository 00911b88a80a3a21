package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/cenkalti/log"
	"github.com/drizzle-bt/drizzle/internal/jsonutil"
	"github.com/drizzle-bt/drizzle/internal/logger"
	"github.com/drizzle-bt/drizzle/torrent"
	"github.com/jackpal/bencode-go"
	"github.com/mitchellh/go-homedir"
	"github.com/urfave/cli"
)

const defaultConfig = "~/.drizzle.yaml"

var errArgs = errors.New("invalid number of arguments")

func main() {
	app := cli.NewApp()
	app.Name = "drizzle"
	app.Usage = "BitTorrent client for single file torrents"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config, c",
			Value: defaultConfig,
			Usage: "read config from `FILE`",
		},
		cli.BoolFlag{
			Name:  "debug, d",
			Usage: "enable debug log",
		},
		cli.BoolFlag{
			Name:  "no-color",
			Usage: "disable colors in JSON output",
		},
		cli.StringSliceFlag{
			Name:  "peer, p",
			Usage: "connect to `ADDR` instead of asking trackers, can be repeated",
		},
	}
	app.Before = func(c *cli.Context) error {
		logger.SetDebug(c.GlobalBool("debug"))
		return nil
	}
	app.Commands = []cli.Command{
		{
			Name:      "decode",
			Usage:     "decode bencoded value and print as JSON",
			ArgsUsage: "<bencoded>",
			Flags: []cli.Flag{
				cli.BoolFlag{
					Name:  "pretty",
					Usage: "print indented and colored",
				},
			},
			Action: handleDecode,
		},
		{
			Name:      "info",
			Usage:     "print information in torrent file",
			ArgsUsage: "<torrent>",
			Action:    handleInfo,
		},
		{
			Name:      "peers",
			Usage:     "print peer addresses from tracker",
			ArgsUsage: "<torrent>",
			Action:    handlePeers,
		},
		{
			Name:      "handshake",
			Usage:     "do handshake with a peer and print its id",
			ArgsUsage: "<torrent> <peer>",
			Action:    handleHandshake,
		},
		{
			Name:      "download_piece",
			Usage:     "download a single piece",
			ArgsUsage: "<torrent> <index>",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "output, o",
					Usage: "write piece to `FILE`",
				},
			},
			Action: handleDownloadPiece,
		},
		{
			Name:      "download",
			Usage:     "download torrent",
			ArgsUsage: "<torrent>",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "output, o",
					Usage: "write content to `FILE`",
				},
				cli.BoolFlag{
					Name:  "stats",
					Usage: "print download statistics",
				},
			},
			Action: handleDownload,
		},
	}
	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}

func handleDecode(c *cli.Context) error {
	if c.NArg() != 1 {
		return errArgs
	}
	v, err := bencode.Decode(strings.NewReader(c.Args().Get(0)))
	if err != nil {
		return err
	}
	var b []byte
	if c.Bool("pretty") {
		b, err = jsonutil.MarshalPretty(v, !c.GlobalBool("no-color"))
	} else {
		b, err = json.Marshal(v)
	}
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

func handleInfo(c *cli.Context) error {
	m, err := loadMetadata(c)
	if err != nil {
		return err
	}
	tracker := ""
	if len(m.Announce) > 0 {
		tracker = m.Announce[0]
	}
	fmt.Println("Tracker URL:", tracker)
	fmt.Println("Length:", m.TotalLength)
	fmt.Println("Info Hash:", m.InfoHashHex())
	fmt.Println("Piece Length:", m.PieceLength)
	fmt.Println("Piece Hashes:")
	for _, h := range m.PieceHashes {
		fmt.Println(hex.EncodeToString(h[:]))
	}
	return nil
}

func handlePeers(c *cli.Context) error {
	m, err := loadMetadata(c)
	if err != nil {
		return err
	}
	clt, err := newClient(c)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()
	addrs, err := clt.Peers(ctx, m)
	if err != nil {
		return err
	}
	for _, addr := range addrs {
		fmt.Println(addr)
	}
	return nil
}

func handleHandshake(c *cli.Context) error {
	if c.NArg() != 2 {
		return errArgs
	}
	m, err := loadMetadata(c)
	if err != nil {
		return err
	}
	clt, err := newClient(c)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()
	id, err := clt.Handshake(ctx, m, c.Args().Get(1))
	if err != nil {
		return err
	}
	fmt.Println("Peer ID:", hex.EncodeToString(id[:]))
	return nil
}

func handleDownloadPiece(c *cli.Context) error {
	if c.NArg() != 2 {
		return errArgs
	}
	output := c.String("output")
	if output == "" {
		return errors.New("output file is required")
	}
	index, err := strconv.ParseUint(c.Args().Get(1), 10, 32)
	if err != nil {
		return err
	}
	m, err := loadMetadata(c)
	if err != nil {
		return err
	}
	clt, err := newClient(c)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()
	_, err = clt.DownloadPiece(ctx, m, uint32(index), output)
	if err != nil {
		return err
	}
	fmt.Printf("Piece %d downloaded to %s.\n", index, output)
	return nil
}

func handleDownload(c *cli.Context) error {
	output := c.String("output")
	if output == "" {
		return errors.New("output file is required")
	}
	m, err := loadMetadata(c)
	if err != nil {
		return err
	}
	clt, err := newClient(c)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()
	stats, err := clt.Download(ctx, m, output)
	if err != nil {
		return err
	}
	fmt.Printf("Downloaded %s to %s.\n", c.Args().Get(0), output)
	if c.Bool("stats") {
		b, err := jsonutil.MarshalFields(*stats, !c.GlobalBool("no-color"))
		if err != nil {
			return err
		}
		_, _ = os.Stdout.Write(b)
	}
	return nil
}

func loadMetadata(c *cli.Context) (*torrent.Metadata, error) {
	if c.NArg() < 1 {
		return nil, errArgs
	}
	return torrent.LoadMetadata(c.Args().Get(0))
}

func newClient(c *cli.Context) (*torrent.Client, error) {
	configPath, err := homedir.Expand(c.GlobalString("config"))
	if err != nil {
		return nil, err
	}
	cfg, err := torrent.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	clt, err := torrent.NewClient(*cfg)
	if err != nil {
		return nil, err
	}
	if peers := c.GlobalStringSlice("peer"); len(peers) > 0 {
		clt.Directory = torrent.StaticPeers(peers)
	}
	return clt, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
