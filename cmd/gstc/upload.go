package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/corner4world/gstd-1.x/pkg/upload"
)

func extraCommands() []*cli.Command {
	return append(relayCommands(),
		&cli.Command{
			Name:     "logs",
			Usage:    "print or upload the gstd log file",
			Category: "debug",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "file",
					Usage: "gstd log file, defaults to gstd.log_file from the config",
				},
				&cli.BoolFlag{
					Name:    "follow",
					Aliases: []string{"f"},
					Usage:   "keep reading as the log grows",
				},
				&cli.StringFlag{
					Name:  "s3",
					Usage: "upload to s3://bucket/key instead of printing",
				},
			},
			Action: runLogs,
		},
		&cli.Command{
			Name:      "upload_graph",
			Usage:     "upload the DOT graph of a pipeline to S3",
			ArgsUsage: "<pipeline> <s3://bucket/key>",
			Category:  "debug",
			Action:    runUploadGraph,
		},
	)
}

func runLogs(c *cli.Context) error {
	conf, err := getConfig(c)
	if err != nil {
		return err
	}
	filename := c.String("file")
	if filename == "" {
		filename = conf.Gstd.LogFile
	}
	if filename == "" {
		return errors.New("no gstd log file configured")
	}

	reader, err := upload.NewReader(filename, upload.ChunkSize, c.Bool("follow"))
	if err != nil {
		return err
	}
	defer reader.Close()

	ctx, cancel := interruptContext()
	defer cancel()
	go func() {
		// stop following at the current end of file once interrupted
		<-ctx.Done()
		reader.Drain()
	}()

	if s3Url := c.String("s3"); s3Url != "" {
		bucket, key, err := upload.ParseURL(s3Url, "gstd", ".log")
		if err != nil {
			return err
		}
		uploader, err := upload.NewUploader(conf.S3)
		if err != nil {
			return err
		}
		if err = uploader.Stream(context.Background(), bucket, key, reader); err != nil {
			return err
		}
		fmt.Printf("uploaded s3://%s/%s\n", bucket, key)
		return nil
	}

	for line := range reader.Lines() {
		if line.Err != nil {
			return line.Err
		}
		fmt.Println(line.Text)
	}
	return nil
}

func runUploadGraph(c *cli.Context) error {
	if c.NArg() != 2 {
		return errors.New("expected <pipeline> <s3://bucket/key>")
	}
	conf, client, err := newClient(c)
	if err != nil {
		return err
	}
	defer client.Close()

	pipe := c.Args().Get(0)
	bucket, key, err := upload.ParseURL(c.Args().Get(1), pipe, ".dot")
	if err != nil {
		return err
	}

	ctx, cancel := interruptContext()
	defer cancel()

	graph, err := client.PipelineGetGraph(ctx, pipe)
	if err != nil {
		return cli.Exit(err.Error(), exitCode(err))
	}

	uploader, err := upload.NewUploader(conf.S3)
	if err != nil {
		return err
	}
	if err = uploader.Put(ctx, bucket, key, []byte(graph), "text/vnd.graphviz"); err != nil {
		return err
	}
	fmt.Printf("uploaded s3://%s/%s\n", bucket, key)
	return nil
}
