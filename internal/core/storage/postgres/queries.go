package postgres

// SQL queries for reading sync output. Leaf ids are NULL above their level.

const (
	metricRecordColumns = `
			pm.id, pm.platform_account_id, pm.campaign_id, pm.ad_set_id, pm.ad_id,
			pm.metric_date, pm.granularity, pm.spend, pm.impressions, pm.clicks,
			pm.conversions, pm.conversion_value, pm.extra_metrics, pm.synced_at`

	// queryListMetricRecords fetches every row of a workspace for one granularity.
	// NULL bounds leave that side of the window open.
	queryListMetricRecords = `
		SELECT` + metricRecordColumns + `
		FROM performance_metrics pm
		WHERE pm.workspace_id = $1
		  AND pm.granularity = $2
		  AND ($3::date IS NULL OR pm.metric_date >= $3::date)
		  AND ($4::date IS NULL OR pm.metric_date <= $4::date)
		ORDER BY pm.metric_date ASC, pm.synced_at ASC NULLS FIRST, pm.id ASC
	`

	// queryListCampaignRecords is queryListMetricRecords for a single campaign.
	queryListCampaignRecords = `
		SELECT` + metricRecordColumns + `
		FROM performance_metrics pm
		WHERE pm.workspace_id = $1
		  AND pm.campaign_id = $2
		  AND pm.granularity = $3
		  AND ($4::date IS NULL OR pm.metric_date >= $4::date)
		  AND ($5::date IS NULL OR pm.metric_date <= $5::date)
		ORDER BY pm.metric_date ASC, pm.synced_at ASC NULLS FIRST, pm.id ASC
	`

	queryListCampaigns = `
		SELECT c.id, c.name, c.objective, pa.platform_key
		FROM campaigns c
		JOIN platform_accounts pa ON pa.id = c.platform_account_id
		WHERE c.workspace_id = $1
		ORDER BY c.id ASC
	`

	queryGetCampaign = `
		SELECT c.id, c.name, c.objective, pa.platform_key
		FROM campaigns c
		JOIN platform_accounts pa ON pa.id = c.platform_account_id
		WHERE c.workspace_id = $1
		  AND c.id = $2
	`

	// querySchemaReady checks that migrations created the tables the adapter reads.
	querySchemaReady = `
		SELECT COUNT(*)
		FROM information_schema.tables
		WHERE table_name IN ('performance_metrics', 'campaigns', 'platform_accounts')
	`
)
