package config

var (
	// AppName is the name of the application
	AppName = "myip"

	// EnvPrefix prefixes every environment override, e.g. MYIP_ENDPOINT_URL
	EnvPrefix = "MYIP"

	// Config search paths, used when no explicit file is given

	// InDot is the path to the config file in ./
	InDot = "."
	// InHome is the path to the config file in $HOME/.config/{AppName}
	InHome = "$HOME/.config/" + AppName
	// InHomeDot is the path to the config file in $HOME/.{AppName}
	InHomeDot = "$HOME/." + AppName
	// InEtc is the path to the config file in /etc/{AppName}
	InEtc = "/etc/" + AppName
)
