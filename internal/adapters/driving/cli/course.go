package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var courseCmd = &cobra.Command{
	Use:   "course",
	Short: "Browse the course catalog",
}

var courseListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog courses",
	Args:  cobra.NoArgs,
	RunE:  runCourseList,
}

var courseGetCmd = &cobra.Command{
	Use:   "get [number]",
	Short: "Show a course by primary or alias number",
	Args:  cobra.ExactArgs(1),
	RunE:  runCourseGet,
}

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import a catalog JSON file",
	Long: `Loads courses, reviews and content from a JSON document with top-level
"courses", "reviews" and "content" arrays. Use "-" to read from stdin.
Content items may set "format" to "markdown" or "html" to have their
markup stripped before indexing; plain text is the default.
Importing the same file again updates entries in place.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	courseCmd.AddCommand(courseListCmd)
	courseCmd.AddCommand(courseGetCmd)
	rootCmd.AddCommand(courseCmd)
	rootCmd.AddCommand(importCmd)
}

func runCourseList(cmd *cobra.Command, _ []string) error {
	if catalogService == nil {
		return errors.New("catalog service not configured")
	}

	courses, err := catalogService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list courses: %w", err)
	}

	if len(courses) == 0 {
		cmd.Println("No courses found. Run 'courselens import' first.")
		return nil
	}

	for i := range courses {
		c := &courses[i]
		status := ""
		if !c.Active {
			status = " (inactive)"
		}
		cmd.Printf("  %-10s %s%s\n", c.Number, c.Title, status)
	}
	cmd.Printf("\nTotal: %d courses\n", len(courses))
	return nil
}

func runCourseGet(cmd *cobra.Command, args []string) error {
	if catalogService == nil {
		return errors.New("catalog service not configured")
	}

	c, err := catalogService.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get course: %w", err)
	}

	cmd.Printf("Course: %s\n\n", c.Number)
	cmd.Printf("  Title:       %s\n", c.Title)
	if len(c.Aliases) > 0 {
		cmd.Printf("  Also listed: %s\n", strings.Join(c.Aliases, ", "))
	}
	cmd.Printf("  Department:  %s\n", c.Department)
	cmd.Printf("  Units:       %s\n", c.Units)
	if len(c.Instructors) > 0 {
		cmd.Printf("  Instructors: %s\n", strings.Join(c.Instructors, ", "))
	}
	if c.Prerequisites != "" {
		cmd.Printf("  Prereqs:     %s\n", c.Prerequisites)
	}
	cmd.Printf("  Active:      %t\n", c.Active)
	if c.Description != "" {
		cmd.Printf("\n%s\n", c.Description)
	}
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	if catalogService == nil {
		return errors.New("catalog service not configured")
	}

	in := cmd.InOrStdin()
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open catalog: %w", err)
		}
		defer f.Close()
		in = f
	}

	result, err := catalogService.Import(cmd.Context(), in)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	cmd.Printf("Imported %d courses, %d reviews, %d content items.\n",
		result.Courses, result.Reviews, result.Content)
	cmd.Println("Run 'courselens embed generate' to embed new or changed text.")
	return nil
}
