package cli

import (
	"strconv"

	"github.com/spf13/cobra"
)

var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Manage the document memory",
	Long:  `Save, retrieve, update, and search documents in the hybrid memory store.`,
}

var (
	memCategory string
	memTopic    string
	memContent  string
	memTopK     int
)

var memorySaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save a new document",
	RunE:  runMemorySave,
}

var memoryQueryCmd = &cobra.Command{
	Use:   "query <text>",
	Short: "Hybrid search over stored documents",
	Args:  cobra.ExactArgs(1),
	RunE:  runMemoryQuery,
}

var memoryGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Fetch a document by id",
	Args:  cobra.ExactArgs(1),
	RunE:  runMemoryGet,
}

var memoryUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update fields of a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runMemoryUpdate,
}

var memoryDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runMemoryDelete,
}

var memoryVerifyCmd = &cobra.Command{
	Use:   "verify <id>",
	Short: "Mark a document as verified now",
	Args:  cobra.ExactArgs(1),
	RunE:  runMemoryVerify,
}

func init() {
	memorySaveCmd.Flags().StringVar(&memCategory, "category", "", "document category")
	memorySaveCmd.Flags().StringVar(&memTopic, "topic", "", "document topic")
	memorySaveCmd.Flags().StringVar(&memContent, "content", "", "document content")
	_ = memorySaveCmd.MarkFlagRequired("category")
	_ = memorySaveCmd.MarkFlagRequired("topic")
	_ = memorySaveCmd.MarkFlagRequired("content")

	memoryQueryCmd.Flags().IntVar(&memTopK, "top-k", 3, "number of results")

	memoryUpdateCmd.Flags().StringVar(&memCategory, "category", "", "new category")
	memoryUpdateCmd.Flags().StringVar(&memTopic, "topic", "", "new topic")
	memoryUpdateCmd.Flags().StringVar(&memContent, "content", "", "new content")

	memoryCmd.AddCommand(memorySaveCmd, memoryQueryCmd, memoryGetCmd,
		memoryUpdateCmd, memoryDeleteCmd, memoryVerifyCmd)
	rootCmd.AddCommand(memoryCmd)
}

func parseID(arg string) (int64, error) {
	return strconv.ParseInt(arg, 10, 64)
}

func runMemorySave(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	eng, err := a.openMemory()
	if err != nil {
		return err
	}
	defer eng.Close()

	id, err := eng.Save(cmd.Context(), memCategory, memTopic, memContent)
	if err != nil {
		return err
	}
	return printJSON(map[string]int64{"doc_id": id})
}

func runMemoryQuery(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	eng, err := a.openMemory()
	if err != nil {
		return err
	}
	defer eng.Close()

	results, err := eng.Query(cmd.Context(), args[0], memTopK)
	if err != nil {
		return err
	}
	return printJSON(results)
}

func runMemoryGet(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	eng, err := a.openMemory()
	if err != nil {
		return err
	}
	defer eng.Close()

	doc, err := eng.Get(cmd.Context(), id)
	if err != nil {
		return err
	}
	return printJSON(doc)
}

func runMemoryUpdate(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	eng, err := a.openMemory()
	if err != nil {
		return err
	}
	defer eng.Close()

	// Only flags the user actually set participate in the update.
	var category, topic, content *string
	if cmd.Flags().Changed("category") {
		category = &memCategory
	}
	if cmd.Flags().Changed("topic") {
		topic = &memTopic
	}
	if cmd.Flags().Changed("content") {
		content = &memContent
	}

	if err := eng.Update(cmd.Context(), id, category, topic, content); err != nil {
		return err
	}
	return printJSON(map[string]interface{}{"doc_id": id, "updated": true})
}

func runMemoryDelete(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	eng, err := a.openMemory()
	if err != nil {
		return err
	}
	defer eng.Close()

	if err := eng.Delete(cmd.Context(), id); err != nil {
		return err
	}
	return printJSON(map[string]interface{}{"doc_id": id, "deleted": true})
}

func runMemoryVerify(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	eng, err := a.openMemory()
	if err != nil {
		return err
	}
	defer eng.Close()

	if err := eng.Verify(cmd.Context(), id); err != nil {
		return err
	}
	return printJSON(map[string]interface{}{"doc_id": id, "verified": true})
}
