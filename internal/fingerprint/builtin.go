package fingerprint

import "regexp"

// builtin lists the fingerprints installed by Default, in enumeration order.
// All literals are lower-case because the signals they test are lower-cased.
var builtin = []struct {
	name  string
	rules func() []Predicate
}{
	{name: "PhpCMS", rules: phpcmsRules},
	{name: "WordPress", rules: wordpressRules},
	{name: "Joomla", rules: joomlaRules},
	{name: "Drupal", rules: drupalRules},
	{name: "DedeCMS", rules: dedecmsRules},
	{name: "Discuz!", rules: discuzRules},
	{name: "EmpireCMS", rules: empirecmsRules},
}

// Default returns a registry populated with the built-in fingerprints.
func Default() *Registry {
	r := NewRegistry()
	for _, b := range builtin {
		if err := r.Register(b.name, b.rules()...); err != nil {
			// Built-in names are unique literals.
			panic(err)
		}
	}
	return r
}

func phpcmsRules() []Predicate {
	return []Predicate{
		BodyContains("http://www.phpcms.cn"),
		BodyContains(`content="phpcms"`),
		BodyContains("phpcms"),
		BodyContains("powered by phpcms"),
		BodyContains("data/config.js"),
		BodyContains("/index.php?m=content&c=index&a=lists"),
		TitleContains("phpcms(盛大)"),
		All(BodyContains("http://www.phpcms.cn"), BodyContains("powered by")),
		BodyContains(`<a href="http://www.phpcms.cn" target="_blank">phpcms</a>`),
	}
}

func wordpressRules() []Predicate {
	return []Predicate{
		BodyContains(`<meta name="generator" content="wordpress`),
		BodyContains("/wp-content/themes/"),
		BodyContains("/wp-content/plugins/"),
		BodyContains("/wp-includes/"),
		BodyContains("/xmlrpc.php?rsd"),
	}
}

func joomlaRules() []Predicate {
	return []Predicate{
		BodyContains(`<meta name="generator" content="joomla!`),
		BodyContains("/media/jui/"),
		BodyContains("/media/system/js/core.js"),
		BodyMatches(regexp.MustCompile(`/components/com_[a-z0-9_]+/`)),
	}
}

func drupalRules() []Predicate {
	return []Predicate{
		BodyContains(`<meta name="generator" content="drupal`),
		BodyContains("drupal.settings"),
		BodyContains("/sites/default/files/"),
		BodyContains("data-drupal-selector"),
		PoweredByContains("drupal"),
	}
}

func dedecmsRules() []Predicate {
	return []Predicate{
		BodyContains("power by dedecms"),
		BodyContains("powered by dedecms"),
		BodyContains("/templets/default/"),
		BodyContains("/include/dedeajax"),
		TitleContains("powered by dedecms"),
	}
}

func discuzRules() []Predicate {
	return []Predicate{
		BodyContains(`<meta name="generator" content="discuz!`),
		BodyContains("powered by <strong><a href=\"http://www.discuz.net\""),
		BodyContains("discuz_uid"),
		TitleContains("powered by discuz!"),
	}
}

func empirecmsRules() []Predicate {
	return []Predicate{
		BodyContains("powered by empirecms"),
		BodyContains("/e/data/js/"),
		BodyContains("/skin/default/js/tabs.js"),
		TitleContains("powered by empirecms"),
	}
}
