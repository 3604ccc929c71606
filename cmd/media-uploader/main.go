package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/feral-file/ff-media-library/internal/adapter"
	"github.com/feral-file/ff-media-library/internal/config"
	"github.com/feral-file/ff-media-library/internal/logger"
	"github.com/feral-file/ff-media-library/internal/media/compressor"
	"github.com/feral-file/ff-media-library/internal/uploadpipeline"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
	folder     = flag.String("folder", "", "Destination folder, bucket root when empty")
	noSync     = flag.Bool("no-sync", false, "Skip the catalog sync after uploading")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <file-or-dir>...\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadUploaderConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	err = logger.Initialize(logger.Config{
		Debug:       cfg.Debug,
		Service:     "media-uploader",
		Environment: cfg.Environment,
		SentryDSN:   cfg.SentryDSN,
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	files, err := collectFiles(flag.Args())
	if err != nil {
		logger.FatalCtx(ctx, "Failed to collect files", zap.Error(err))
	}

	fileSystem := adapter.NewFileSystem()
	ioAdapter := adapter.NewIO()
	api := uploadpipeline.NewClient(uploadpipeline.ClientConfig{
		BaseURL: cfg.APIURL,
		UserID:  cfg.UserID,
	}, adapter.NewHTTPClient(cfg.Timeout, adapter.DefaultRetryPolicy()), ioAdapter)

	images := compressor.NewImageCompressor(compressor.ImageConfig{
		MaxDimension:      cfg.MaxImageDimension,
		TargetSize:        cfg.CompressionTarget,
		WorkerConcurrency: cfg.Concurrency,
	}, adapter.NewImageCodec())

	pipeline := uploadpipeline.New(uploadpipeline.Config{
		Ceiling:           cfg.Ceiling,
		CompressionTarget: cfg.CompressionTarget,
		Concurrency:       cfg.Concurrency,
		Folder:            *folder,
		SyncAfterUpload:   cfg.SyncAfterUpload && !*noSync,
	}, api, images, fileSystem, ioAdapter)

	plan, err := pipeline.Plan(ctx, files)
	if err != nil {
		if plan != nil {
			for _, c := range plan.Candidates() {
				printStatus(*c)
			}
		}
		logger.ErrorCtx(ctx, err, zap.Int("files", len(files)))
		os.Exit(1)
	}

	summary, err := pipeline.Execute(ctx, plan, printStatus)
	if err != nil {
		logger.ErrorCtx(ctx, err, zap.Int("files", len(files)))
		os.Exit(1)
	}
	printSummary(summary)
	if summary.Failed > 0 {
		os.Exit(1)
	}
}

// collectFiles expands directories into their regular files, skipping hidden entries
func collectFiles(paths []string) ([]uploadpipeline.LocalFile, error) {
	var files []uploadpipeline.LocalFile
	for _, root := range paths {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if path != root && strings.HasPrefix(d.Name(), ".") {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return err
			}
			files = append(files, uploadpipeline.LocalFile{Path: path, Name: d.Name(), Size: info.Size()})
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", root, err)
		}
	}
	if len(files) == 0 {
		return nil, errors.New("no files found")
	}
	return files, nil
}

func printStatus(c uploadpipeline.Candidate) {
	switch c.Status {
	case uploadpipeline.StatusUploading:
		if c.Progress == 0 || c.Progress == 100 {
			fmt.Printf("uploading %s (%d%%)\n", c.UploadName(), c.Progress)
		}
	case uploadpipeline.StatusSuccess:
		fmt.Printf("uploaded  %s\n", c.UploadName())
	case uploadpipeline.StatusError:
		fmt.Printf("failed    %s: %v\n", c.File.Path, c.Err)
	case uploadpipeline.StatusSkipped:
		fmt.Printf("skipped   %s: %s\n", c.File.Path, c.Notice)
	}
}

func printSummary(s *uploadpipeline.Summary) {
	fmt.Printf("\n%d uploaded, %d failed, %d skipped\n", s.Uploaded, s.Failed, s.Skipped)
	for _, c := range s.Candidates {
		if c.Notice != "" && c.Status != uploadpipeline.StatusSkipped {
			fmt.Printf("note: %s: %s\n", c.File.Name, c.Notice)
		}
	}
	switch {
	case s.SyncErr != nil:
		fmt.Printf("sync failed: %v\n", s.SyncErr)
	case s.Sync != nil:
		fmt.Printf("sync: %d created, %d updated, %d deleted\n", s.Sync.Created, s.Sync.Updated, s.Sync.Deleted)
	}
}
