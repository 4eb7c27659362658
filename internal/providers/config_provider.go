package providers

import (
	"fmt"
	"github.com/spf13/viper"
	"path/filepath"
	"dbd/internal/structures"
	"strings"
)

func NewConfigProvider(flags *structures.CliFlags) (*structures.Config, error) {
	var conf structures.Config

	filename := filepath.Base(flags.ConfigPath)
	viper.AddConfigPath(filepath.Dir(flags.ConfigPath))
	viper.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
	viper.SetConfigType("yaml")

	viper.BindEnv("logger.level", "DBD_LOG_LEVEL")
	viper.BindEnv("board.dataDir", "DBD_DATA_DIR")
	viper.BindEnv("chain.batchThreshold", "DBD_BATCH_THRESHOLD")
	viper.BindEnv("chain.anchorUrl", "DBD_ANCHOR_URL")
	viper.BindEnv("access.oracleUrl", "DBD_ORACLE_URL")
	viper.BindEnv("notify.redisAddr", "DBD_REDIS_ADDR")
	viper.BindEnv("cache.enabled", "DBD_CACHE_ENABLED")
	viper.BindEnv("cache.size", "DBD_CACHE_SIZE")

	err := viper.ReadInConfig()
	if err != nil {
		return nil, err
	}

	err = viper.Unmarshal(&conf)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	cnfValidator := NewCnfValidator(&conf)
	err = cnfValidator.Validate()
	if err != nil {
		return nil, err
	}

	conf.AppName = "DomainBoardDaemon"
	conf.Path = flags.ConfigPath
	conf.Debug = flags.DebugMode

	return &conf, nil
}
