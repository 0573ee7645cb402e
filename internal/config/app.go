package config

type AppConfig struct {
	Server ServerConfig
	Room   RoomConfig
	Log    LogConfig
}

func LoadApp() (AppConfig, error) {
	logCfg, err := LoadLog()
	if err != nil {
		return AppConfig{}, err
	}
	serverCfg, err := LoadServer()
	if err != nil {
		return AppConfig{}, err
	}
	roomCfg, err := LoadRoom()
	if err != nil {
		return AppConfig{}, err
	}
	return AppConfig{
		Server: serverCfg,
		Room:   roomCfg,
		Log:    logCfg,
	}, nil
}
