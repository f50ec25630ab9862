package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/jo-hoe/gardengallery/internal/gallery"
)

const usage = `usage: gallery [-config path] -owner id <command> [args]

commands:
  list                          show the owner's images
  upload [-main=true|false] f...  upload files as one batch
  set-main <imageId>            flag an image as the owner's main image
  delete <imageId>              delete an image
  describe <imageId> <text>     change an image description
`

func getConfigPath() string {
	if configPath := os.Getenv("GALLERY_CONFIG"); configPath != "" {
		return configPath
	}
	cwd, err := os.Getwd()
	if err != nil {
		panic(err)
	}
	return filepath.Join(cwd, "gallery.yaml")
}

func main() {
	configPath := flag.String("config", getConfigPath(), "path to the client configuration")
	ownerID := flag.Int64("owner", 0, "owner id of the gallery")
	flag.Usage = func() { fmt.Fprint(flag.CommandLine.Output(), usage) }
	flag.Parse()

	if *ownerID <= 0 || flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	config, err := gallery.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load config from %s: %v", *configPath, err)
	}
	service, err := config.NewImageService()
	if err != nil {
		log.Fatalf("failed to create image service: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := gallery.NewStore(*ownerID, service)
	defer store.Close()

	if err := run(ctx, store, flag.Arg(0), flag.Args()[1:]); err != nil {
		log.Fatalf("%s: %v", flag.Arg(0), err)
	}
}

func run(ctx context.Context, store *gallery.Store, command string, args []string) error {
	if !store.LoadImages(ctx) {
		return store.State().LastError
	}

	switch command {
	case "list":
	case "upload":
		return upload(ctx, store, args)
	case "set-main":
		id, err := imageID(args, 1)
		if err != nil {
			return err
		}
		if !store.SetMain(ctx, id) {
			return store.State().LastError
		}
	case "delete":
		id, err := imageID(args, 1)
		if err != nil {
			return err
		}
		if !store.Remove(ctx, id) {
			return store.State().LastError
		}
	case "describe":
		id, err := imageID(args, 2)
		if err != nil {
			return err
		}
		if !store.UpdateDescription(ctx, id, args[1]) {
			return store.State().LastError
		}
	default:
		return fmt.Errorf("unknown command %q", command)
	}
	printState(store.State())
	return nil
}

func upload(ctx context.Context, store *gallery.Store, args []string) error {
	flags := flag.NewFlagSet("upload", flag.ContinueOnError)
	mainFlag := flags.String("main", "", "force the batch main flag (true or false)")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() == 0 {
		return errors.New("at least one file is required")
	}

	var isMain *bool
	if *mainFlag != "" {
		value, err := strconv.ParseBool(*mainFlag)
		if err != nil {
			return fmt.Errorf("invalid -main value %q", *mainFlag)
		}
		isMain = &value
	}

	for _, path := range flags.Args() {
		store.StageForUpload(gallery.FileFromPath(path))
	}
	unsubscribe := store.Subscribe(func(state gallery.State) {
		if state.IsUploading {
			fmt.Fprintf(os.Stderr, "\ruploading %3d%%", state.UploadProgress)
		}
	})
	ok := store.CommitUpload(ctx, isMain)
	unsubscribe()
	fmt.Fprintln(os.Stderr)

	state := store.State()
	if !ok {
		return state.LastError
	}
	printState(state)
	if state.LastError != nil {
		// partial batch, the uploaded files stay attached
		fmt.Fprintln(os.Stderr, state.LastError)
	}
	return nil
}

func imageID(args []string, want int) (int64, error) {
	if len(args) != want {
		return 0, fmt.Errorf("expected %d argument(s), got %d", want, len(args))
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid image id %q", args[0])
	}
	return id, nil
}

func printState(state gallery.State) {
	if len(state.Images) == 0 {
		fmt.Printf("owner %d has no images\n", state.OwnerID)
		return
	}
	for i, image := range state.Images {
		marker := " "
		if image.IsMain {
			marker = "*"
		}
		description := ""
		if image.Description != nil {
			description = *image.Description
		}
		fmt.Printf("%s %2d  id=%-6d %-30s %s\n", marker, i, image.ID, truncate(image.DisplayURI(), 30), description)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
