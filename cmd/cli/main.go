package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rundb/RunDB"
	"github.com/rundb/RunDB/backup"
	"github.com/rundb/RunDB/core"
	"github.com/rundb/RunDB/db"
	"github.com/rundb/RunDB/ps"
)

const (
	PromptColor  = "\033[36m" // Cyan
	ErrorColor   = "\033[31m" // Red
	SuccessColor = "\033[32m" // Green
	ResetColor   = "\033[0m"
	BoldColor    = "\033[1m"
)

// Version is set at build time via -ldflags
var Version = "dev"

// CLI holds the REPL state
type CLI struct {
	instance    *RunDB.Instance
	engine      *db.Engine
	mode        db.CommitMode
	path        string
	driver      string
	history     []string
	historyFile string
}

func main() {
	dbPath := flag.String("db", "", "Database file (empty for an in-memory database)")
	driver := flag.String("driver", ps.DriverSQLite, "Embedded engine: sqlite3 or duckdb")
	sqlFile := flag.String("sqlFile", "", "SQL file to execute (non-interactive)")
	commitName := flag.String("commit", "each", "Commit mode: each or manual")
	flag.Parse()

	mode, err := parseCommitMode(*commitName)
	if err != nil {
		fmt.Printf("%sError: %v%s\n", ErrorColor, err, ResetColor)
		os.Exit(1)
	}

	printBanner()

	opts := &ps.Options{Driver: *driver}
	var instance *RunDB.Instance
	if *dbPath == "" {
		fmt.Printf("%sUsing an in-memory %s database%s\n", SuccessColor, *driver, ResetColor)
		instance, err = RunDB.OpenMemory(opts)
	} else {
		fmt.Printf("%sUsing %s database: %s%s\n", SuccessColor, *driver, *dbPath, ResetColor)
		instance, err = RunDB.Open(*dbPath, opts)
	}
	if err != nil {
		fmt.Printf("%sError: %v%s\n", ErrorColor, err, ResetColor)
		os.Exit(1)
	}

	if mode == db.CommitOnRequest {
		fmt.Printf("%sCommit mode: manual, use .commit to persist changes%s\n", SuccessColor, ResetColor)
	}

	cli := &CLI{
		instance:    instance,
		engine:      instance.Engine(mode),
		mode:        mode,
		path:        *dbPath,
		driver:      *driver,
		history:     make([]string, 0),
		historyFile: getHistoryPath(),
	}

	cli.loadHistory()

	// Execute SQL file if provided
	if *sqlFile != "" {
		cli.runFile(*sqlFile)
		return
	}

	cli.run()
}

func printBanner() {
	fmt.Println()
	bannerWidth := 39 // inner width of the banner box
	versionLine := fmt.Sprintf("RunDB v%s", Version)
	padding := bannerWidth - len(versionLine) - 2 // -2 for "  " margins
	if padding < 0 {
		padding = 0
	}
	leftPad := padding / 2
	rightPad := padding - leftPad

	fmt.Printf("%s%s╔═══════════════════════════════════════╗%s\n", BoldColor, PromptColor, ResetColor)
	fmt.Printf("%s%s║ %*s%s%*s ║%s\n", BoldColor, PromptColor, leftPad, "", versionLine, rightPad, "", ResetColor)
	fmt.Printf("%s%s║   Embedded SQL Statement Runner       ║%s\n", BoldColor, PromptColor, ResetColor)
	fmt.Printf("%s%s╚═══════════════════════════════════════╝%s\n", BoldColor, PromptColor, ResetColor)
	fmt.Println()
	fmt.Println("Type .help for commands, .quit to exit")
	fmt.Println()
}

func (cli *CLI) run() {
	reader := bufio.NewReader(os.Stdin)
	var multiLineBuffer strings.Builder

	for {
		// Show prompt
		prompt := cli.getPrompt(multiLineBuffer.Len() > 0)
		fmt.Print(prompt)

		// Read input
		input, err := reader.ReadString('\n')
		if err != nil {
			fmt.Println()
			cli.shutdown()
			return
		}

		input = strings.TrimSuffix(input, "\n")
		input = strings.TrimSuffix(input, "\r")

		// Handle empty input
		if strings.TrimSpace(input) == "" {
			continue
		}

		// Check for special commands (only when not in multi-line mode)
		if multiLineBuffer.Len() == 0 && strings.HasPrefix(input, ".") {
			if cli.handleCommand(input) {
				continue
			}
		}

		// Multi-line support: accumulate until we see a semicolon
		multiLineBuffer.WriteString(input)

		// Check if the statement is complete (ends with ;)
		trimmed := strings.TrimSpace(multiLineBuffer.String())
		if !strings.HasSuffix(trimmed, ";") {
			multiLineBuffer.WriteString(" ")
			continue
		}

		// Execute the complete statement
		sql := strings.TrimSuffix(trimmed, ";")
		multiLineBuffer.Reset()

		if strings.TrimSpace(sql) == "" {
			continue
		}

		// Add to history
		cli.addToHistory(sql + ";")

		// Execute SQL
		result, err := cli.engine.Execute(sql)
		if err != nil {
			fmt.Printf("%s✗ Error: %v%s\n", ErrorColor, err, ResetColor)
		} else {
			result.Display()
		}
	}
}

// runFile executes a SQL file and exits. In manual commit mode the file
// applies all-or-nothing: any failed statement rolls the whole run back.
func (cli *CLI) runFile(filename string) {
	_, failed, err := cli.importFile(filename)
	if err != nil {
		fmt.Printf("%sError importing file: %v%s\n", ErrorColor, err, ResetColor)
		cli.engine.Close()
		os.Exit(1)
	}

	if cli.engine.Pending() {
		if failed > 0 {
			cli.engine.Rollback()
			fmt.Printf("%s✗ Rolled back: %d statement(s) failed%s\n", ErrorColor, failed, ResetColor)
		} else if err := cli.engine.Commit(); err != nil {
			fmt.Printf("%s✗ Commit failed: %v%s\n", ErrorColor, err, ResetColor)
			failed++
		} else {
			fmt.Printf("%s✓ Committed%s\n", SuccessColor, ResetColor)
		}
	}

	cli.engine.Close()
	if failed > 0 {
		os.Exit(1)
	}
}

// shutdown discards pending work, saves history and closes the store.
func (cli *CLI) shutdown() {
	if cli.engine.Pending() {
		fmt.Printf("%s✗ Discarding uncommitted changes%s\n", ErrorColor, ResetColor)
	}
	fmt.Printf("%sGoodbye!%s\n", SuccessColor, ResetColor)
	cli.saveHistory()
	cli.engine.Close()
}

func (cli *CLI) getPrompt(multiLine bool) string {
	if multiLine {
		return fmt.Sprintf("%s   ...>%s ", PromptColor, ResetColor)
	}

	// An asterisk marks uncommitted changes
	pending := ""
	if cli.engine.Pending() {
		pending = "*"
	}

	return fmt.Sprintf("%srundb%s>%s ", PromptColor, pending, ResetColor)
}

func (cli *CLI) handleCommand(input string) bool {
	parts := strings.Fields(strings.TrimSpace(input))
	if len(parts) == 0 {
		return true
	}

	// Only the command itself is case-insensitive; table names and
	// paths keep their case
	command := strings.ToLower(parts[0])

	switch command {
	case ".quit", ".exit", ".q":
		cli.shutdown()
		os.Exit(0)

	case ".help", ".h", ".?":
		cli.printHelp()

	case ".tables":
		cli.showTables()

	case ".schema":
		if len(parts) > 1 {
			cli.showSchema(parts[1])
		} else {
			fmt.Printf("%s✗ Usage: .schema <table>%s\n", ErrorColor, ResetColor)
		}

	case ".import":
		if len(parts) > 1 {
			if _, _, err := cli.importFile(parts[1]); err != nil {
				fmt.Printf("%s✗ Error: %v%s\n", ErrorColor, err, ResetColor)
			}
		} else {
			fmt.Printf("%s✗ Usage: .import <file.sql>%s\n", ErrorColor, ResetColor)
		}

	case ".backup":
		if len(parts) > 1 {
			cli.backupTo(parts[1])
		} else {
			fmt.Printf("%s✗ Usage: .backup <dest>%s\n", ErrorColor, ResetColor)
		}

	case ".restore":
		if len(parts) > 1 {
			cli.restoreFrom(parts[1])
		} else {
			fmt.Printf("%s✗ Usage: .restore <src>%s\n", ErrorColor, ResetColor)
		}

	case ".mode":
		if len(parts) > 1 {
			cli.switchMode(parts[1])
		} else {
			fmt.Printf("Commit mode: %s\n", cli.engine.Mode())
		}

	case ".commit":
		if !cli.engine.Pending() {
			fmt.Println("Nothing to commit")
		} else if err := cli.engine.Commit(); err != nil {
			fmt.Printf("%s✗ Error: %v%s\n", ErrorColor, err, ResetColor)
		} else {
			fmt.Printf("%s✓ Committed%s\n", SuccessColor, ResetColor)
		}

	case ".rollback":
		if !cli.engine.Pending() {
			fmt.Println("Nothing to roll back")
		} else if err := cli.engine.Rollback(); err != nil {
			fmt.Printf("%s✗ Error: %v%s\n", ErrorColor, err, ResetColor)
		} else {
			fmt.Printf("%s✓ Rolled back%s\n", SuccessColor, ResetColor)
		}

	case ".clear", ".cls":
		fmt.Print("\033[H\033[2J")

	case ".history":
		cli.printHistory()

	case ".version":
		fmt.Printf("RunDB version %s\n", Version)

	default:
		fmt.Printf("%s✗ Unknown command: %s (type .help for commands)%s\n", ErrorColor, command, ResetColor)
	}

	return true
}

func (cli *CLI) printHelp() {
	fmt.Println()
	fmt.Printf("%s%sSpecial Commands:%s\n", BoldColor, PromptColor, ResetColor)
	fmt.Println("  .help, .h        Show this help message")
	fmt.Println("  .quit, .exit     Exit the CLI")
	fmt.Println("  .tables          List tables")
	fmt.Println("  .schema <table>  Show a table's columns")
	fmt.Println("  .import <file>   Execute SQL statements from a file")
	fmt.Println("  .backup <dest>   Snapshot the database to a file or s3:// URL")
	fmt.Println("  .restore <src>   Replace the database with a snapshot")
	fmt.Println("  .mode [name]     Show or switch the commit mode (each, manual)")
	fmt.Println("  .commit          Persist held work (manual mode)")
	fmt.Println("  .rollback        Discard held work (manual mode)")
	fmt.Println("  .history         Show command history")
	fmt.Println("  .clear           Clear the screen")
	fmt.Println("  .version         Show version info")
	fmt.Println()
	fmt.Printf("%s%sSQL Statements:%s\n", BoldColor, PromptColor, ResetColor)
	fmt.Println("  CREATE TABLE <table> (<column> <type>, ...);")
	fmt.Println("  DROP TABLE <table>;")
	fmt.Println("  INSERT INTO <table> (<cols>) VALUES (<vals>);")
	fmt.Println("  SELECT <cols> FROM <table> [WHERE ...] [ORDER BY ...] [LIMIT n];")
	fmt.Println("  UPDATE <table> SET <col>=<val> [WHERE ...];")
	fmt.Println("  DELETE FROM <table> [WHERE ...];")
	fmt.Println()
	fmt.Printf("%s%sDialect:%s the full SQL of the embedded engine (SQLite or DuckDB) is available\n", BoldColor, PromptColor, ResetColor)
	fmt.Println()
}

func (cli *CLI) showTables() {
	tables, err := cli.engine.Tables(context.Background())
	if err != nil {
		fmt.Printf("%s✗ Error: %v%s\n", ErrorColor, err, ResetColor)
		return
	}

	data := make([][]string, len(tables))
	for i, name := range tables {
		data[i] = []string{name}
	}
	db.QueryResult{Columns: []string{"table"}, Data: data, RecordsRead: len(data)}.Display()
}

func (cli *CLI) showSchema(table string) {
	columns, err := cli.engine.Columns(context.Background(), table)
	if err != nil {
		fmt.Printf("%s✗ Error: %v%s\n", ErrorColor, err, ResetColor)
		return
	}

	data := make([][]string, len(columns))
	for i, col := range columns {
		var notes []string
		if col.PrimaryKey {
			notes = append(notes, "PRIMARY KEY")
		}
		if col.AutoAssign {
			notes = append(notes, "AUTO")
		}
		if col.NotNull {
			notes = append(notes, "NOT NULL")
		}
		data[i] = []string{col.Name, col.Type.String(), strings.Join(notes, " ")}
	}
	db.QueryResult{Columns: []string{"column", "type", "constraints"}, Data: data, RecordsRead: len(data)}.Display()
}

func (cli *CLI) backupTo(dest string) {
	if cli.engine.Pending() {
		fmt.Printf("%s✗ Commit or roll back pending changes first%s\n", ErrorColor, ResetColor)
		return
	}

	if err := backup.Snapshot(context.Background(), cli.instance.Store, dest, nil); err != nil {
		fmt.Printf("%s✗ Error: %v%s\n", ErrorColor, err, ResetColor)
		return
	}
	fmt.Printf("%s✓ Snapshot written to %s%s\n", SuccessColor, dest, ResetColor)
}

// restoreFrom swaps the open database for the snapshot. The store has
// to be closed while its file is replaced.
func (cli *CLI) restoreFrom(src string) {
	if cli.path == "" {
		fmt.Printf("%s✗ Restore needs a file database, start with -db%s\n", ErrorColor, ResetColor)
		return
	}
	if cli.engine.Pending() {
		fmt.Printf("%s✗ Commit or roll back pending changes first%s\n", ErrorColor, ResetColor)
		return
	}

	cli.engine.Close()

	err := backup.Restore(context.Background(), src, cli.path, &backup.Options{Overwrite: true})
	if err != nil {
		fmt.Printf("%s✗ Error: %v%s\n", ErrorColor, err, ResetColor)
	}

	instance, openErr := RunDB.Open(cli.path, &ps.Options{Driver: cli.driver})
	if openErr != nil {
		fmt.Printf("%s✗ Cannot reopen database: %v%s\n", ErrorColor, openErr, ResetColor)
		os.Exit(1)
	}
	cli.instance = instance
	cli.engine = instance.Engine(cli.mode)

	if err == nil {
		fmt.Printf("%s✓ Restored from %s%s\n", SuccessColor, src, ResetColor)
	}
}

// switchMode replaces the engine. The store stays open, so a fresh
// engine on the same instance is enough.
func (cli *CLI) switchMode(name string) {
	mode, err := parseCommitMode(name)
	if err != nil {
		fmt.Printf("%s✗ %v%s\n", ErrorColor, err, ResetColor)
		return
	}
	if mode == cli.mode {
		fmt.Printf("Commit mode: %s\n", cli.engine.Mode())
		return
	}
	if cli.engine.Pending() {
		fmt.Printf("%s✗ Commit or roll back pending changes first%s\n", ErrorColor, ResetColor)
		return
	}

	cli.mode = mode
	cli.engine = cli.instance.Engine(mode)
	fmt.Printf("%s✓ Commit mode: %s%s\n", SuccessColor, cli.engine.Mode(), ResetColor)
}

// parseCommitMode maps the -commit flag and the .mode argument.
func parseCommitMode(name string) (db.CommitMode, error) {
	switch strings.ToLower(name) {
	case "each":
		return db.CommitEachStatement, nil
	case "manual", "request":
		return db.CommitOnRequest, nil
	}
	return 0, fmt.Errorf("unknown commit mode %q (each or manual)", name)
}

func (cli *CLI) addToHistory(cmd string) {
	// Don't add duplicates of the last command
	if len(cli.history) > 0 && cli.history[len(cli.history)-1] == cmd {
		return
	}
	cli.history = append(cli.history, cmd)

	// Limit history size
	if len(cli.history) > 1000 {
		cli.history = cli.history[len(cli.history)-1000:]
	}
}

func (cli *CLI) printHistory() {
	if len(cli.history) == 0 {
		fmt.Println("No command history")
		return
	}

	start := 0
	if len(cli.history) > 20 {
		start = len(cli.history) - 20
	}

	for i := start; i < len(cli.history); i++ {
		fmt.Printf("  %3d  %s\n", i+1, cli.history[i])
	}
}

func getHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".rundb_history")
}

func (cli *CLI) loadHistory() {
	if cli.historyFile == "" {
		return
	}

	file, err := os.Open(cli.historyFile)
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		cli.history = append(cli.history, scanner.Text())
	}
}

func (cli *CLI) saveHistory() {
	if cli.historyFile == "" {
		return
	}

	file, err := os.Create(cli.historyFile)
	if err != nil {
		return
	}
	defer file.Close()

	// Save last 1000 entries
	start := 0
	if len(cli.history) > 1000 {
		start = len(cli.history) - 1000
	}

	for i := start; i < len(cli.history); i++ {
		_, _ = file.WriteString(cli.history[i] + "\n")
	}
}

// importFile reads and executes SQL statements from a file
func (cli *CLI) importFile(filename string) (succeeded, failed int, err error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read file: %w", err)
	}

	statements := core.Split(string(data))

	for i, stmt := range statements {
		result, err := cli.engine.Execute(stmt)
		if err != nil {
			fmt.Printf("%s[%d] ✗ %s%s\n", ErrorColor, i+1, truncate(stmt, 50), ResetColor)
			fmt.Printf("      Error: %v\n", err)
			failed++
			continue
		}
		succeeded++

		// Compact output based on result type
		switch r := result.(type) {
		case db.CommitResult:
			detail := ""
			if r.RowsAffected > 0 {
				detail = fmt.Sprintf(" (%d row(s) affected)", r.RowsAffected)
			}
			fmt.Printf("%s[%d] ✓ %s%s%s\n", SuccessColor, i+1, truncate(stmt, 50), detail, ResetColor)
		case db.QueryResult:
			fmt.Printf("%s[%d] ✓ %s (%d rows)%s\n", SuccessColor, i+1, truncate(stmt, 50), r.RecordsRead, ResetColor)
		default:
			fmt.Printf("%s[%d] ✓ %s%s\n", SuccessColor, i+1, truncate(stmt, 50), ResetColor)
		}
	}

	fmt.Printf("\n%s✓ Import complete: %d succeeded, %d failed%s\n",
		SuccessColor, succeeded, failed, ResetColor)

	return succeeded, failed, nil
}

// truncate shortens a string to max length with ellipsis
func truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\t", " ")
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
