package config

const (
	// MaxProjectNameLength is the stored length of a project name. Names are
	// derived from the initial prompt and truncated with "..." beyond this.
	MaxProjectNameLength = 50

	// MaxPromptLength bounds initial prompts and revision instructions.
	MaxPromptLength = 10000

	// MaxCodeLength bounds manually saved code payloads (2 MiB).
	MaxCodeLength = 2 << 20

	// MaxTransactionHistory is the largest page of ledger rows returned at once.
	MaxTransactionHistory = 200
)
