/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/docker/go-units"

	"github.com/suparena/estatestore"
	"github.com/suparena/estatestore/blobstore"
)

func runUpload(ctx context.Context, f *estatestore.Facade, args []string) error {
	if err := expectArgs(args, 2, commands["upload"].usage); err != nil {
		return err
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	task, err := f.UploadFileWithProgress(ctx, args[1], data, func(p blobstore.Progress) {
		fmt.Fprintf(os.Stderr, "\r%-8s %5.1f%%  %s / %s", p.State, p.Fraction*100,
			units.HumanSize(float64(p.TransferredBytes)), units.HumanSize(float64(p.TotalBytes)))
	})
	if err != nil {
		return err
	}
	url, err := task.Wait(ctx)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return err
	}
	fmt.Println(url)
	return nil
}

func runURL(ctx context.Context, f *estatestore.Facade, args []string) error {
	if err := expectArgs(args, 1, commands["url"].usage); err != nil {
		return err
	}
	url, err := f.GetFileURL(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Println(url)
	return nil
}

func runRemove(ctx context.Context, f *estatestore.Facade, args []string) error {
	if err := expectArgs(args, 1, commands["rm"].usage); err != nil {
		return err
	}
	return f.DeleteFile(ctx, args[0])
}
