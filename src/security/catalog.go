package security

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Rule is one injection signature: a category for grouping, a human label
// for audit output, and a case-insensitive pattern. The catalog is kept as
// data so rules stay independently testable and extensible without touching
// scanner control flow.
type Rule struct {
	Category string
	Label    string
	re       *regexp.Regexp
}

// Flag categories.
const (
	CategoryInstructionOverride    = "instruction_override"
	CategorySystemPromptExtraction = "system_prompt_extraction"
	CategoryCommandInjection       = "command_injection"
	CategoryDataExfiltration       = "data_exfiltration"
	CategoryRoleManipulation       = "role_manipulation"
)

// ruleSpec is the uncompiled form used for the builtin table and YAML files.
type ruleSpec struct {
	Category string `yaml:"category"`
	Label    string `yaml:"label"`
	Pattern  string `yaml:"pattern"`
}

// builtinRules is the ordered signature catalog. Order matters: earlier
// rules claim the flag slots first on inputs that trigger many.
var builtinRules = []ruleSpec{
	// Attempts to countermand prior instructions.
	{CategoryInstructionOverride, "ignore previous instructions",
		`(?:ignore|disregard|forget|skip)\s+(?:all\s+|any\s+)?(?:previous|prior|above|earlier|preceding)\s+(?:instructions?|prompts?|rules?|context|directives?|guidelines?)`},
	{CategoryInstructionOverride, "forget your training",
		`forget\s+everything|forget\s+(?:all\s+|your\s+)(?:instructions?|rules?|guidelines?|training)`},
	{CategoryInstructionOverride, "new instructions marker",
		`(?:new|updated|revised)\s+instructions?\s*:`},
	{CategoryInstructionOverride, "from now on directive",
		`from\s+now\s+on,?\s+you\s+(?:are|will|must|should)`},
	{CategoryInstructionOverride, "override marker",
		`(?:IMPORTANT|CRITICAL|URGENT)\s*:\s*(?:ignore|override|disregard)`},
	{CategoryInstructionOverride, "chat template tokens",
		`<\|?(?:im_start|system)\|?>|\[INST\]|<<SYS>>`},

	// Attempts to exfiltrate the agent's own configuration.
	{CategorySystemPromptExtraction, "reveal system prompt",
		`(?:show|reveal|display|output|print|repeat|recite)\s+(?:me\s+)?(?:all\s+)?(?:your|the)\s+(?:system\s+)?(?:prompt|instructions?|configuration|rules?|settings)`},
	{CategorySystemPromptExtraction, "ask for original instructions",
		`what\s+(?:are|were)\s+(?:your|the)\s+(?:original\s+|initial\s+)?(?:instructions?|prompts?|rules?)`},

	// Shell and network command fragments.
	{CategoryCommandInjection, "remote fetch piped to shell",
		`(?:curl|wget)\s+[^\s]+\s*\|\s*(?:ba)?sh`},
	{CategoryCommandInjection, "destructive filesystem command",
		`rm\s+-[a-z]*[rf][a-z]*\s+[/~]`},
	{CategoryCommandInjection, "privilege escalation",
		`sudo\s+(?:su|chmod|chown|rm|cat\s+/etc/(?:shadow|passwd))`},
	{CategoryCommandInjection, "shell eval",
		`(?:eval|exec|os\.system|subprocess\.(?:run|call|popen))\s*\(`},

	// Instructions to forward captured content to a third party.
	{CategoryDataExfiltration, "forward data to third party",
		`(?:send|forward|upload|post|transmit|email|exfiltrate)\s+(?:this|the|all|any|that|your)?\s*(?:data|content|conversation|information|messages?|credentials?|secrets?|output|file|history)\s+to\b`},
	{CategoryDataExfiltration, "credential query parameter",
		`https?://[^\s]*[?&](?:secret|token|key|password|api_key|credential|auth)=`},

	// Jailbreak and persona-override phrasing.
	{CategoryRoleManipulation, "you are now persona",
		`you\s+are\s+now\s+(?:a|an|the)?\s*\w`},
	{CategoryRoleManipulation, "pretend to be",
		`pretend\s+(?:to\s+be|you\s+are|you're)`},
	{CategoryRoleManipulation, "act as persona",
		`act\s+as\s+(?:if\s+you\s+are\s+)?(?:a|an|the)\s+`},
	{CategoryRoleManipulation, "persona reassignment",
		`your\s+(?:new\s+)?(?:role|persona|identity)\s+(?:is|:)`},
	{CategoryRoleManipulation, "developer mode",
		`(?:developer|dan|jailbreak|god)\s+mode`},

	// Locale variants of override phrasing. Scan input is NFKD-decomposed,
	// so accented letters, voiced kana, and Cyrillic short i arrive as a
	// base letter plus a combining mark; patterns must spell them that way.
	{CategoryInstructionOverride, "override phrasing (es)",
		`ignora\s+(?:todas?\s+)?las?\s+instrucciones\s+(?:anteriores|previas)`},
	{CategoryInstructionOverride, "override phrasing (fr)",
		`ignore[zr]?\s+(?:toutes?\s+)?les\s+instructions\s+pre\x{0301}?ce\x{0301}?dentes`},
	{CategoryInstructionOverride, "override phrasing (de)",
		`ignoriere?\s+(?:alle\s+)?(?:vorherigen|bisherigen)\s+(?:anweisungen|instruktionen)`},
	{CategoryInstructionOverride, "override phrasing (zh)",
		`忽略(?:之前|以上|先前)的?(?:指令|指示|说明)`},
	{CategoryInstructionOverride, "override phrasing (ja)",
		`(?:これまて\x{3099}の|以前の|上記の)(?:指示|命令)を無視`},
	{CategoryInstructionOverride, "override phrasing (ru)",
		`игнорируи\x{0306}(?:те)?\s+(?:все\s+)?предыдущие\s+(?:инструкции|указания)`},
}

// BuiltinRules compiles the builtin catalog. The table is validated by tests,
// so compilation cannot fail at runtime.
func BuiltinRules() []Rule {
	rules, err := compileRules(builtinRules)
	if err != nil {
		panic(fmt.Sprintf("builtin rule table: %v", err))
	}
	return rules
}

// rulesFile is the YAML overlay document shape.
type rulesFile struct {
	Rules []ruleSpec `yaml:"rules"`
}

// LoadRules reads additional rules from a YAML file. Loaded rules are
// appended after the builtin catalog (or stand alone when builtins are
// disabled), preserving file order.
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules %s: %w", path, err)
	}

	var doc rulesFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing rules %s: %w", path, err)
	}

	rules, err := compileRules(doc.Rules)
	if err != nil {
		return nil, fmt.Errorf("rules %s: %w", path, err)
	}
	return rules, nil
}

func compileRules(specs []ruleSpec) ([]Rule, error) {
	rules := make([]Rule, 0, len(specs))
	for i, spec := range specs {
		if spec.Category == "" {
			return nil, fmt.Errorf("rule[%d]: category is required", i)
		}
		if spec.Pattern == "" {
			return nil, fmt.Errorf("rule[%d] (%s): pattern is required", i, spec.Label)
		}

		pattern := spec.Pattern
		if !strings.HasPrefix(pattern, "(?i)") {
			pattern = "(?i)" + pattern
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("rule[%d] (%s): invalid pattern %q: %w", i, spec.Label, spec.Pattern, err)
		}

		rules = append(rules, Rule{
			Category: spec.Category,
			Label:    spec.Label,
			re:       re,
		})
	}
	return rules, nil
}
