package policy

// Base command names are lower-case and carry no path or .exe suffix.

// unixAllowed is the Unix (macOS + Linux) allowlist.
var unixAllowed = []string{
	// File inspection
	"ls", "cat", "head", "tail", "wc", "grep", "sort", "uniq", "diff", "cut", "tr", "file", "stat", "du", "df", "tree",

	// File management inside the project
	"cp", "mv", "mkdir", "rm", "rmdir", "touch", "ln", "tee",

	// Shell utilities
	"pwd", "cd", "echo", "printf", "sleep", "which", "date", "true", "false", "test", "basename", "dirname",

	// Process inspection
	"ps", "lsof", "pgrep",

	// Toolchains
	"npm", "npx", "node", "yarn", "pnpm", "bun", "deno", "tsc", "vite", "next",
	"python", "python3", "pip", "pip3", "uv", "poetry", "pytest",
	"go", "cargo", "rustc", "make", "git",

	// Require deeper validation (see unixExtra)
	"chmod", "pkill", "init.sh", "bash", "sh", "zsh",
}

// unixExtra is the subset of unixAllowed that must also pass a rule validator.
var unixExtra = []string{"chmod", "pkill", "init.sh", "bash", "sh", "zsh"}

// windowsAllowed is the Windows (cmd.exe + PowerShell) allowlist.
var windowsAllowed = []string{
	// cmd.exe built-ins
	"dir", "type", "echo", "cd", "chdir", "copy", "move", "mkdir", "md", "findstr", "where", "more", "tree", "ver",

	// PowerShell cmdlets
	"get-childitem", "get-content", "get-location", "set-location", "select-string",
	"test-path", "write-output", "write-host", "get-process",

	// Process inspection
	"tasklist", "timeout",

	// Toolchains
	"npm", "npx", "node", "yarn", "pnpm", "bun", "tsc", "vite", "next",
	"python", "py", "pip", "uv", "pytest", "go", "cargo", "git",

	// Require deeper validation (see windowsExtra)
	"taskkill", "init.bat", "init.ps1", "cmd", "powershell", "pwsh",
}

// windowsExtra is the subset of windowsAllowed that must also pass a rule validator.
var windowsExtra = []string{"taskkill", "init.bat", "init.ps1", "cmd", "powershell", "pwsh"}

// defaultDevProcesses are process names that are safe to terminate: local dev
// servers and toolchain front-ends.
var defaultDevProcesses = []string{
	"node", "npm", "npx", "yarn", "pnpm", "bun", "deno",
	"python", "python3", "vite", "next", "nodemon", "ts-node", "tsx",
	"webpack", "esbuild", "uvicorn", "gunicorn", "flask", "http-server",
}

// defaultDevScriptPatterns match entrypoint file names that identify a
// project script in a `pkill -f` pattern.
var defaultDevScriptPatterns = []string{
	"server.{js,mjs,cjs,ts,py}",
	"app.{js,mjs,ts,py}",
	"index.{js,mjs,ts}",
	"main.{js,ts,py}",
	"manage.py",
	"dev-server*",
	"*.config.{js,mjs,ts}",
}

// neverAllow can never be added to an allowlist through configuration.
var neverAllow = []string{
	"sudo", "su", "doas", "kill", "killall", "shutdown", "reboot", "halt", "poweroff",
	"mkfs", "dd", "format", "diskpart", "reg", "sc", "eval", "exec", "stop-process",
	"remove-item", "invoke-expression", "iex",
}

// protectedProcesses are never valid pkill targets, even in -f patterns.
var protectedProcesses = []string{
	"bash", "sh", "zsh", "fish", "dash", "ksh", "login",
	"chrome", "chromium", "firefox", "safari", "msedge", "brave",
	"sshd", "ssh", "systemd", "init", "launchd", "kernel_task", "loginwindow",
	"finder", "dock", "windowserver", "explorer", "csrss", "lsass", "winlogon",
	"xorg", "gnome-shell", "dbus-daemon", "cron", "docker", "dockerd", "containerd",
}
