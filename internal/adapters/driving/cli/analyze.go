package cli

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/canvasrag/internal/core/domain"
)

var (
	analyzeProject string
	describeJSON   bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <image> [question]",
	Short: "Ask a question about one rendered slide",
	Long: `Streams an answer about a single image. With --project the project's
title and slide names are added as context. Without a question a general
analysis is produced.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

var describeCmd = &cobra.Command{
	Use:   "describe <image>",
	Short: "Generate a searchable description of a slide image",
	Long: `Classifies the image and writes a short summary suitable for indexing.
If the model does not follow the TYPE:/SUMMARY: format, its raw output is
used as the description.`,
	Args: cobra.ExactArgs(1),
	RunE: runDescribe,
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeProject, "project", "p", "", "project id to add as context")
	describeCmd.Flags().BoolVar(&describeJSON, "json", false, "output the description as JSON")
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(describeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if analysisService == nil {
		return errors.New("analysis service not configured")
	}
	image, err := readImage(args[0])
	if err != nil {
		return err
	}

	req := domain.AnalysisRequest{
		Owner:     domain.Owner(strings.TrimSpace(ownerFlag)),
		Image:     image,
		Query:     strings.Join(args[1:], " "),
		ProjectID: analyzeProject,
	}
	if req.ProjectID != "" && !req.Owner.IsValid() {
		return errors.New("--project needs --owner")
	}

	return printStream(cmd, analysisService.StreamAnalysis(cmd.Context(), req))
}

func runDescribe(cmd *cobra.Command, args []string) error {
	if analysisService == nil {
		return errors.New("analysis service not configured")
	}
	image, err := readImage(args[0])
	if err != nil {
		return err
	}

	desc, err := analysisService.Describe(cmd.Context(), image)
	if err != nil {
		return fmt.Errorf("describe failed: %w", err)
	}
	if describeJSON {
		return printJSON(cmd, desc)
	}
	cmd.Printf("Type:        %s\n", desc.ContentType)
	cmd.Printf("Description: %s\n", desc.Description)
	return nil
}

// readImage loads an image file as a data URI. Arguments that already are
// data URIs are passed through.
func readImage(path string) (string, error) {
	if strings.HasPrefix(path, "data:") {
		return path, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading image: %w", err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("reading image: %s is empty", path)
	}
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		mime = "image/png"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
