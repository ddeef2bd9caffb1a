package main

var (
	toolVersion = "devel"
	toolDate    = "unknown"
)

const (
	aptgraphShort = "A tool to visualise and analyse the dependency graph of a Debian package."
	aptgraphLong  = `Discover the transitive dependency graph of a Debian package, as declared in the
'Depends:' field of its metadata, write it as a Graphviz DOT description and render it as an
image.

Running 'aptgraph <package>' is the same as running 'aptgraph graph <package>'.

Package metadata is retrieved with 'apt show' and images are produced with the Graphviz 'dot'
tool unless configured otherwise. Packages that can not be looked up are reported and left out
of the discovery without stopping it.

NB: The '--verbose' flag takes an optional list of strings that allow you to only get verbose
    output for specific pieces of logic. The available domains are:
     * init -> Code that runs before any actual dependency processing happens.
     * graph -> Interactions on the underlying graph representation.
     * pkginfo -> Retrieval of package metadata from the package manager.
     * discovery -> Traversal of the dependency graph.
     * printer -> Writing of the DOT description.
     * render -> Generation of the image from the DOT description.
     * analysis -> Computation of dependency statistics.
     * all -> Covers all domains above.
    Without any arguments the behaviour defaults to enabling verbosity on all domains, the
    equivalent of passing 'all' as argument.

Settings can also be read from a YAML ('.yaml', '.yml') or TOML ('.toml') file passed with
'--config'. Flags that are set explicitly take precedence over the file. The recognised keys are
'query_command', 'renderer', 'renderer_binary', 'dot_output', 'output', 'format', 'style',
'depth' and 'timeout'.
`

	graphShort = "Visualise the dependency graph of a Debian package."
	graphLong  = `Discover the dependency graph of the given package, write its DOT description and
render it as an image.

Both files are overwritten on each run. When the package is unknown, or has no dependencies,
nothing is written. A missing or failing renderer is reported but does not make the command
fail; the DOT description is still available.

The generated graph's visual aspect can be tuned with the '--style' flag. You can specify any
formatting options as '<option>=<value>[,<option>=<value>]' out of the following list:

- 'rankdir':    one of 'LR', 'RL', 'TB' or 'BT' (default 'LR'). The direction in which the
                graph is laid out.

- 'node_shape': any Graphviz shape name such as 'box' or 'ellipse'. The shape used for every
                package node.

- 'annotate':   one of 'true' or 'false' (default 'false'). Label each dependency edge with the
                version constraint under which it was declared.

- 'colour':     one of 'true' or 'false' (default 'false'). Fill each package node with a colour
                derived from its name. The root package stands out.
`

	analyseShort = "Analyse the dependency graph of a Debian package and output interesting statistics."

	completionShort = "Commands to generate shell completion for various environments."

	versionShort = "Display the version of the aptgraph tool."
)
