package cmd

import (
	"errors"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	configVersionKey     = "version"
	currentConfigVersion = 1

	configBaseName   = "subsetcheck"
	configFileName   = configBaseName + ".yaml"
	configFolderPath = "."

	sanitizerFlagName     = "sanitizer"
	noSanitizeFlagName    = "no-sanitize"
	pythonFlagName        = "python"
	workerTimeoutFlagName = "worker-timeout"
	keepOutputFlagName    = "keep-output"
	reportFlagName        = "report"
	dropTableFlagName     = "drop-table"
	keepTableFlagName     = "keep-table"
	verboseFlagName       = "verbose"
	logFileFlagName       = "log-file"
	workerFlagName        = "worker"
	commandsFlagName      = "commands"

	sanitizerPathKey     = "sanitizer.path"
	sanitizerDisabledKey = "sanitizer.disabled"
	dumpPythonKey        = "dump.python"
	dumpTimeoutKey       = "dump.timeout"
	workerTimeoutKey     = "worker.timeout"
	keepOutputKey        = "run.keep_output"
	reportKey            = "run.report"
	dropTablesKey        = "run.drop_tables"
	keepTablesKey        = "run.keep_tables"

	defaultSanitizer     = "ots-sanitize"
	defaultPython        = "python3"
	defaultDumpTimeout   = 2 * time.Minute
	defaultWorkerTimeout = time.Minute
	defaultKeepOutput    = "failed"

	envPrefix = "SUBSETCHECK"

	logFilenameKey   = "log.filename"
	logLevelKey      = "log.level"
	logVerboseKey    = "log.verbose"
	logMaxSizeKey    = "log.max_size"
	logMaxBackupsKey = "log.max_backups"
	logMaxAgeKey     = "log.max_age"
	logCompressKey   = "log.compress"

	defaultLogFilename   = ".subsetcheck.log"
	defaultLogLevel      = int(slog.LevelInfo)
	defaultLogVerbose    = false
	defaultLogMaxSize    = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAge     = 28
	defaultLogCompress   = true
)

// Tables every run drops or keeps regardless of profile: DSIG is never valid
// after subsetting, and sbix is kept so color bitmap fonts stay comparable.
var (
	defaultDropTables = []string{"DSIG"}
	defaultKeepTables = []string{"sbix"}
)

func init() {
	viper.SetConfigName(configBaseName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configFolderPath)
	viper.SetConfigFile(filepath.Join(configFolderPath, configFileName))
	viper.AutomaticEnv()
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	viper.SetDefault(configVersionKey, currentConfigVersion)
	viper.SetDefault(sanitizerPathKey, defaultSanitizer)
	viper.SetDefault(sanitizerDisabledKey, false)
	viper.SetDefault(dumpPythonKey, defaultPython)
	viper.SetDefault(dumpTimeoutKey, defaultDumpTimeout)
	viper.SetDefault(workerTimeoutKey, defaultWorkerTimeout)
	viper.SetDefault(keepOutputKey, defaultKeepOutput)
	viper.SetDefault(reportKey, "")
	viper.SetDefault(dropTablesKey, defaultDropTables)
	viper.SetDefault(keepTablesKey, defaultKeepTables)

	viper.SetDefault(logFilenameKey, defaultLogFilename)
	viper.SetDefault(logLevelKey, defaultLogLevel)
	viper.SetDefault(logVerboseKey, defaultLogVerbose)
	viper.SetDefault(logMaxSizeKey, defaultLogMaxSize)
	viper.SetDefault(logMaxBackupsKey, defaultLogMaxBackups)
	viper.SetDefault(logMaxAgeKey, defaultLogMaxAge)
	viper.SetDefault(logCompressKey, defaultLogCompress)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			slog.Debug("No config file loaded", "file", configFileName, "error", err)
		}
	}
}

func parseSlogLevel(value string, defaultLevel slog.Level) slog.Level {
	level := strings.ToLower(strings.TrimSpace(value))
	if level == "" {
		return defaultLevel
	}

	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	// Numeric slog levels, e.g. -4 for debug.
	if n, err := strconv.Atoi(level); err == nil {
		return slog.Level(n)
	}

	return defaultLevel
}

// configureLogger points the default slog logger at a rotated log file. The
// console is left to the UI.
func configureLogger(logPath string, verbose bool) {
	if strings.TrimSpace(logPath) == "" {
		logPath = defaultLogFilename
	}

	level := parseSlogLevel(viper.GetString(logLevelKey), slog.LevelInfo)
	if verbose {
		level = slog.LevelDebug
	}

	writer := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    viper.GetInt(logMaxSizeKey),
		MaxBackups: viper.GetInt(logMaxBackupsKey),
		MaxAge:     viper.GetInt(logMaxAgeKey),
		Compress:   viper.GetBool(logCompressKey),
	}

	handler := slog.NewTextHandler(writer, &slog.HandlerOptions{
		AddSource: true,
		Level:     level,
	})

	slog.SetDefault(slog.New(handler))
}
