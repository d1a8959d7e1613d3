package report

// DefaultSubjectTemplate is used when no subject template is configured.
const DefaultSubjectTemplate = `[Campaign Insights] {{ count }} {{ direction }}performing campaign{% if count != 1 %}s{% endif %} on {{ metric_label }}`

// DefaultBodyTemplate is used when no body template is configured.
const DefaultBodyTemplate = `<html>
<body style="font-family: Arial, sans-serif; color: #222;">
<h2>{{ direction | capitalize }}performing campaigns</h2>
<p>{{ count }} campaign{% if count != 1 %}s{% endif %} deviated from their group baseline on {{ metric_label }} (generated {{ generated_at }}).</p>
<table cellpadding="6" cellspacing="0" border="1" style="border-collapse: collapse;">
<tr>
<th align="left">Campaign</th><th align="left">Group</th><th align="left">Topic</th>
<th>Value</th><th>Mean</th><th>Z</th><th>Deviation</th><th>Severity</th><th>Status</th>
</tr>
{% for a in anomalies %}<tr>
<td>{{ a.name | escape }}</td><td>{{ a.group | escape }}</td><td>{{ a.topic | escape }}</td>
<td align="right">{{ a.value | round: 2 }}%</td><td align="right">{{ a.mean | round: 2 }}%</td>
<td align="right">{{ a.z_score | round: 2 }}</td><td align="right">{{ a.deviation_percent | round: 1 }}%</td>
<td>{{ a.severity }}</td><td>{% if a.is_live %}live{% else %}completed{% endif %}</td>
</tr>
{% endfor %}</table>
</body>
</html>
`
