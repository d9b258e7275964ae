package config

// Template is the durian.toml written by `durian init`. Every key is
// commented out at its default.
const Template = `# durian configuration. Values here are overridden by DURIAN_* environment
# variables and by command line flags.

[run]
# generators = ["defaultparam", "getter"]
# jobs = 0                    # 0 uses every CPU
# tests = false               # also generate for _test.go packages
# warnings_as_errors = false
# max_diagnostics = 0

[cache]
# enabled = true
# dir = ""                    # defaults to $XDG_CACHE_HOME/durian

[log]
# level = "warning"
# format = "text"             # text|json

[diagnostics]
# format = "pretty"           # pretty|short|json
# target = "report"           # none|report|log|both
# color = "auto"              # auto|on|off

[pass_log]
# enabled = false
# directory = ".durian/logs"
# flags = "generated,diagnostics"

[trace]
# level = "off"               # off|error|phase|detail|debug
# output = "-"

[defaultparam]
# suffix = "Default"
# workers = 1

[getter]
# workers = 1
`
