package config

type (
	//TableCfg is the container for other table config sections
	TableCfg struct {
		Log  LogTableCfg
		Meta MetaTableCfg
		Stat StatTableCfg
	}

	//LogTableCfg contains the configuration for logging
	LogTableCfg struct {
		LogTable string `default:"logs"`
	}

	//MetaTableCfg contains the meta db collection names
	MetaTableCfg struct {
		RunsTable string `default:"runs"`
	}

	//StatTableCfg contains the names of the per run statistics collections
	StatTableCfg struct {
		ConnectionTable string `default:"connections"`
		SummaryTable    string `default:"summaries"`
	}
)
